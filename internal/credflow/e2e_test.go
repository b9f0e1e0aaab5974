package credflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/api/apitest"
	"github.com/tajious/rollcall/internal/client"
	"github.com/tajious/rollcall/internal/credflow"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/session"
)

func TestMPINResetAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.SeedUser(t, "Asha", "9876543210", "")

	path := t.TempDir() + "/session.json"
	auth, err := session.NewAuth(session.NewFileStore(path))
	require.NoError(t, err)

	c := client.New(apitest.BaseURL, auth, client.WithHTTPClient(backend.HTTPClient()))
	flow := credflow.New(c, auth, zerolog.Nop())
	ctx := context.Background()

	_, err = flow.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)

	_, err = flow.VerifyOTP(ctx, "00000000")
	assert.EqualError(t, err, "Invalid or expired OTP")

	_, err = flow.VerifyOTP(ctx, backend.Outbox.LastCode("9876543210"))
	require.NoError(t, err)

	msg, err := flow.SetMPIN(ctx, "482193", "482193")
	require.NoError(t, err)
	assert.Equal(t, "MPIN updated successfully", msg)

	_, err = flow.Login(ctx, "9876543210", "1234")
	assert.EqualError(t, err, "Invalid mobile number or MPIN")

	res, err := flow.Login(ctx, "9876543210", "482193")
	require.NoError(t, err)
	assert.Equal(t, credflow.LoggedIn, flow.State())

	// a fresh process sees the same session
	reloaded, err := session.NewAuth(session.NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, res.Token, reloaded.Token())

	var user models.User
	require.NoError(t, json.Unmarshal(reloaded.User(), &user))
	assert.Equal(t, "Asha", user.Name)

	info, err := reloaded.Inspect()
	require.NoError(t, err)
	assert.Equal(t, "9876543210", info.Mobile)
}

func TestUnregisteredMobile(t *testing.T) {
	backend := apitest.New(t)
	auth, err := session.NewAuth(session.NewMemoryStore())
	require.NoError(t, err)

	c := client.New(apitest.BaseURL, auth, client.WithHTTPClient(backend.HTTPClient()))
	flow := credflow.New(c, auth, zerolog.Nop())

	_, err = flow.RequestOTP(context.Background(), "9999999999")
	assert.EqualError(t, err, "Mobile number not registered")
	assert.Equal(t, credflow.AwaitingMobile, flow.State())
}
