package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiminhng/penwright/internal/commentservice"
	"github.com/haiminhng/penwright/internal/common"
	"github.com/haiminhng/penwright/internal/postservice"
	"github.com/haiminhng/penwright/internal/reactionservice"
	"github.com/haiminhng/penwright/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	rabbitURI := common.TestRabbitMQ(t)
	broker, err := common.NewMessageBroker(rabbitURI)
	assert.NoError(t, err)

	err = common.SetupUserExchange(broker)
	assert.NoError(t, err)

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	cfg := &Config{
		Port:           ":4000",
		Environment:    "test",
		Version:        "test",
		LimiterRPS:     100,
		LimiterBurst:   100,
		LimiterEnabled: false,
	}

	app := &application{
		config:          cfg,
		logger:          logger,
		userService:     userservice.NewUserService(db, broker, cache),
		postService:     postservice.NewPostService(db, cache),
		commentService:  commentservice.NewCommentService(db),
		reactionService: reactionservice.NewReactionService(db),
		broker:          broker,
	}

	return app, db
}

// consumeActivationToken pops the next user.created event off the queue and
// returns the activation token it carries.
func consumeActivationToken(t *testing.T, app *application) string {
	msgs, err := app.broker.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		var data struct {
			Username string
			Email    string
			Token    string
		}
		require.NoError(t, json.Unmarshal(msg.Body, &data))
		msg.Ack(false)
		return data.Token
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for user.created message")
		return ""
	}
}

func (ts *testServer) request(t *testing.T, method, path string, payload any, token *string) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodGet, path, nil, token)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodPost, path, payload, token)
}

func (ts *testServer) put(t *testing.T, path string, payload any, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodPut, path, payload, token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodDelete, path, nil, token)
}

// registerActivatedUser drives the full signup flow through the API and
// returns an access token for the new account.
func registerActivatedUser(t *testing.T, app *application, ts *testServer, username, email, password string) string {
	status, _, _ := ts.post(t, "/v1/users/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	activationToken := consumeActivationToken(t, app)

	status, _, _ = ts.put(t, "/v1/users/activate", map[string]string{"token": activationToken}, nil)
	require.Equal(t, http.StatusOK, status)

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	tokenData, ok := body["token"].(map[string]any)
	require.True(t, ok)

	accessToken, ok := tokenData["access_token"].(string)
	require.True(t, ok)

	return accessToken
}

func promoteToAdmin(t *testing.T, db *sql.DB, username string) {
	_, err := db.Exec("UPDATE users SET role = 'admin' WHERE username = $1", username)
	require.NoError(t, err)
}
