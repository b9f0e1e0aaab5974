package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/models"
)

func TestValidMobile(t *testing.T) {
	cases := map[string]bool{
		"9876543210":  true,
		"0000000000":  true,
		"987654321":   false,
		"98765432101": false,
		"98765a3210":  false,
		"+987654321":  false,
		"":            false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidMobile(in), in)
	}
}

func TestValidMPIN(t *testing.T) {
	cases := map[string]bool{
		"1234":    true,
		"123456":  true,
		"12345":   false,
		"123":     false,
		"1234567": false,
		"12a4":    false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidMPIN(in), in)
	}
}

func TestCheckUserPayload(t *testing.T) {
	err := Check(models.UserPayload{Name: "Asha", Mobile: "12345", Status: models.StatusActive})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Mobile", verr.Field)
	assert.Equal(t, "Mobile number must be exactly 10 digits", verr.Message)

	err = Check(models.UserPayload{Name: "   ", Mobile: "9876543210", Status: models.StatusActive})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name is required", verr.Message)

	assert.NoError(t, Check(models.UserPayload{Name: "Asha", Mobile: "9876543210", Status: models.StatusInactive}))
}

func TestCheckRolePayloadStatus(t *testing.T) {
	err := Check(models.RolePayload{Name: "Nurse", Status: "paused"})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Status", verr.Field)
}
