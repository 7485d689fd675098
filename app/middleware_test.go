package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string {
	return &s
}

func TestRecoverPanic(t *testing.T) {
	app, _ := newTestApplication(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	middleware := app.recoverPanic(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	middleware.ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestAuthenticate(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	accessToken := registerActivatedUser(t, app, ts, "authuser", "authuser@example.com", "Test_1234!")

	tests := []struct {
		name           string
		token          *string
		expectedStatus int
	}{
		{
			name:           "no authentication header",
			token:          nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid token",
			token:          strptr("ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed token",
			token:          strptr("not-a-real-token"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			token:          &accessToken,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, _ := ts.get(t, "/v1/healthcheck", tt.token)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

func TestRequireAuthUser(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, _ := ts.get(t, "/v1/users/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	accessToken := registerActivatedUser(t, app, ts, "profileuser", "profileuser@example.com", "Test_1234!")

	status, _, body := ts.get(t, "/v1/users/profile", &accessToken)
	assert.Equal(t, http.StatusOK, status)

	user, ok := body["user"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "profileuser", user["username"])
}

func TestRequireAdmin(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	accessToken := registerActivatedUser(t, app, ts, "plainuser", "plainuser@example.com", "Test_1234!")

	status, _, _ := ts.get(t, "/v1/users", &accessToken)
	assert.Equal(t, http.StatusForbidden, status)

	promoteToAdmin(t, db, "plainuser")

	// re-login so the cached principal picks up the new role
	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "plainuser",
		"password": "Test_1234!",
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	tokenData := body["token"].(map[string]any)
	adminToken := tokenData["access_token"].(string)

	status, _, _ = ts.get(t, "/v1/users", &adminToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimit(t *testing.T) {
	app, _ := newTestApplication(t)
	app.config.LimiterEnabled = true
	app.config.LimiterRPS = 1
	app.config.LimiterBurst = 2

	ts := newTestServer(t, app.routes())

	var lastStatus int
	for i := 0; i < 5; i++ {
		status, _, _ := ts.get(t, "/v1/healthcheck", nil)
		lastStatus = status
	}

	assert.Equal(t, http.StatusTooManyRequests, lastStatus, fmt.Sprintf("expected burst of 2 to be exhausted, got %d", lastStatus))
}
