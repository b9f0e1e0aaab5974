package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/session"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	status, resp := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (f *fakeServer) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeServer) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, token string) (*Client, *fakeServer) {
	t.Helper()

	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	auth, err := session.NewAuth(session.NewMemoryStore())
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, auth.Set(token, json.RawMessage(`{"name":"Asha"}`)))
	}

	return New(srv.URL+"/api/", auth), fake
}

func TestBearerTokenOnEveryCallButLogin(t *testing.T) {
	c, fake := newTestClient(t, "abc123")
	ctx := context.Background()

	fake.respond(0, `{"token":"t","message":"ok"}`)
	_, err := c.Login(ctx, "9876543210", "1234")
	require.NoError(t, err)
	assert.Empty(t, fake.last(t).Auth)
	assert.Equal(t, "/api/login", fake.last(t).Path)

	fake.respond(0, `{"message":"OTP sent"}`)
	_, err = c.SendOTP(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", fake.last(t).Auth)

	fake.respond(0, `[]`)
	_, err = c.Users().FetchActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", fake.last(t).Auth)
}

func TestNoTokenNoHeader(t *testing.T) {
	c, fake := newTestClient(t, "")
	fake.respond(0, `[]`)

	_, err := c.Roles().FetchActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fake.last(t).Auth)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Invalid mobile number or MPIN"}`, "Invalid mobile number or MPIN"},
		{"error field", http.StatusBadRequest, `{"error":"bad request"}`, "bad request"},
		{"message wins", http.StatusBadRequest, `{"message":"m","error":"e"}`, "m"},
		{"no body", http.StatusInternalServerError, ``, "Login failed"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t, "")
			fake.respond(tt.status, tt.body)

			res, err := c.Login(context.Background(), "9876543210", "1234")
			assert.Nil(t, res)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestTransportFailureUsesFallback(t *testing.T) {
	auth, err := session.NewAuth(session.NewMemoryStore())
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, auth)
	_, err = c.VerifyOTP(context.Background(), "9876543210", "1234")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Verify OTP failed", apiErr.Message)
}

func TestOTPValueIsNotExposed(t *testing.T) {
	c, fake := newTestClient(t, "")
	fake.respond(0, `{"otp":"4821","message":"OTP sent successfully"}`)

	msg, err := c.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent successfully", msg)
	assert.NotContains(t, msg, "4821")
	assert.JSONEq(t, `{"mobile":"9876543210"}`, fake.last(t).Body)
}

func TestLoginKeepsUserPayloadOpaque(t *testing.T) {
	c, fake := newTestClient(t, "")
	fake.respond(0, `{"token":"abc123","user":{"id":"u1","name":"Asha","extra":true},"message":"Login successful"}`)

	res, err := c.Login(context.Background(), "9876543210", "1234")
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.Token)
	assert.JSONEq(t, `{"id":"u1","name":"Asha","extra":true}`, string(res.User))
	assert.JSONEq(t, `{"mobile":"9876543210","mpin":"1234"}`, fake.last(t).Body)
}

func TestListShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `[{"id":"1","name":"Nurse"},{"id":"2","name":"Doctor"}]`, 2},
		{"wrapped", `{"data":[{"id":"1","name":"Nurse"}]}`, 1},
		{"empty wrapper", `{}`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t, "abc123")
			fake.respond(0, tt.body)

			roles, err := c.Roles().FetchDeleted(context.Background())
			require.NoError(t, err)
			assert.Len(t, roles, tt.want)
			assert.NotNil(t, roles)
			assert.Equal(t, "/api/deleted-roles", fake.last(t).Path)
		})
	}
}

func TestCollectionPaths(t *testing.T) {
	c, fake := newTestClient(t, "abc123")
	ctx := context.Background()
	users, roles := c.Users(), c.Roles()
	fake.respond(0, `{"message":"ok"}`)

	steps := []struct {
		run    func() error
		method string
		path   string
	}{
		{func() error { return users.Create(ctx, models.UserPayload{Name: "Ravi"}) }, http.MethodPost, "/api/users"},
		{func() error { return users.Update(ctx, "u1", models.UserPayload{Name: "Ravi"}) }, http.MethodPatch, "/api/users/u1"},
		{func() error { return users.SoftDelete(ctx, "u1") }, http.MethodDelete, "/api/users/u1"},
		{func() error { return users.Restore(ctx, "u1") }, http.MethodPost, "/api/restore-user/u1"},
		{func() error { return users.HardDelete(ctx, "u1") }, http.MethodDelete, "/api/force-delete-user/u1"},
		{func() error { return roles.Create(ctx, models.RolePayload{Name: "Nurse"}) }, http.MethodPost, "/api/role"},
		{func() error { return roles.Update(ctx, "r1", models.RolePayload{Name: "Nurse"}) }, http.MethodPatch, "/api/roles/r1"},
		{func() error { return roles.SoftDelete(ctx, "r1") }, http.MethodDelete, "/api/roles/r1"},
		{func() error { return roles.Restore(ctx, "r1") }, http.MethodPost, "/api/restore-role/r1"},
		{func() error { return roles.HardDelete(ctx, "r1") }, http.MethodDelete, "/api/force-delete-role/r1"},
	}

	for _, s := range steps {
		require.NoError(t, s.run())
		got := fake.last(t)
		assert.Equal(t, s.method, got.Method, s.path)
		assert.Equal(t, s.path, got.Path)
	}
}
