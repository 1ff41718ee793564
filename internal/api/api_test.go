package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshsshje/sshsshje/internal/auth"
	"github.com/sshsshje/sshsshje/internal/broadcast"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/pool"
)

type testServer struct {
	handler http.Handler
	src     *fakeSource
	reg     *broadcast.Registry
	loop    *broadcast.Loop
}

func newTestServer(t *testing.T, src *fakeSource, authn *auth.Authenticator) *testServer {
	t.Helper()
	reg := broadcast.NewRegistry(nil)
	loop := broadcast.NewLoop(reg, func(ctx context.Context) (any, error) {
		return src.System(ctx)
	}, broadcast.LoopOptions{})

	return &testServer{
		handler: NewRouter(Options{
			Source:      src,
			Registry:    reg,
			Loop:        loop,
			Auth:        authn,
			CORSOrigins: []string{"http://localhost:5577", "http://localhost:3000"},
		}),
		src:  src,
		reg:  reg,
		loop: loop,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func TestGetSystem(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)

	w := ts.do(t, http.MethodGet, "/api/system", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 12.5, body["cpu_usage"])
	assert.Contains(t, body["disk"], "/")
}

func TestReadRoutes(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)

	for _, path := range []string{
		"/api/services", "/api/containers", "/api/applications",
		"/api/security", "/api/diagnostics", "/api/history", "/api/system/",
	} {
		t.Run(path, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestConnectionErrorsAre503(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"pool exhausted", pool.ErrPoolExhausted, errors.ErrPool},
		{"connect failure", errors.WrapWithCode(stderrors.New("connection refused"), errors.ErrSSH, "Cannot connect to remote server", ""), errors.ErrSSH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeSource{err: tt.err}, nil)

			w := ts.do(t, http.MethodGet, "/api/system", "")
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)

			detail := decodeError(t, w)
			assert.Equal(t, tt.code, detail.Code)
			assert.NotEmpty(t, detail.RequestID)
			assert.Equal(t, w.Header().Get(RequestIDHeader), detail.RequestID)
		})
	}
}

func TestConnectFailureDetailsCarryCause(t *testing.T) {
	err := errors.WrapWithCode(stderrors.New("no route to host"), errors.ErrSSH, "Cannot connect to remote server", "")
	ts := newTestServer(t, &fakeSource{err: err}, nil)

	detail := decodeError(t, ts.do(t, http.MethodGet, "/api/services", ""))
	assert.Equal(t, "Cannot connect to remote server", detail.Message)
	assert.Equal(t, "no route to host", detail.Details)
}

func TestPanicIsRecovered(t *testing.T) {
	ts := newTestServer(t, &fakeSource{panicking: true}, nil)

	w := ts.do(t, http.MethodGet, "/api/system", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, codeInternal, decodeError(t, w).Code)
}

func TestHistoryDays(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)

	w := ts.do(t, http.MethodGet, "/api/history?days=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Metrics   []json.RawMessage `json:"metrics"`
		Synthetic bool              `json:"synthetic"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Len(t, body.Metrics, 3*288)
	assert.True(t, body.Synthetic)

	w = ts.do(t, http.MethodGet, "/api/history?days=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrInput, decodeError(t, w).Code)
}

func TestRestart(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		src    *fakeSource
		status int
		msg    string
	}{
		{"service", `{"type":"service","name":"nginx"}`, &fakeSource{}, http.StatusOK, ""},
		{"container", `{"type":"container","name":"guacamole-web"}`, &fakeSource{}, http.StatusOK, ""},
		{"bad json", `{"type":`, &fakeSource{}, http.StatusBadRequest, "Invalid JSON body"},
		{"bad type", `{"type":"vm","name":"x"}`, &fakeSource{}, http.StatusBadRequest, "Type must be 'service' or 'container'"},
		{"bad name", `{"type":"service","name":"nginx; reboot"}`, &fakeSource{}, http.StatusBadRequest, "Invalid service name"},
		{
			"command failed",
			`{"type":"service","name":"nginx"}`,
			&fakeSource{err: errors.New(errors.ErrAction, "Failed to restart service nginx: Unit not found", "")},
			http.StatusInternalServerError,
			"Failed to restart service nginx",
		},
		{"unreachable", `{"type":"service","name":"nginx"}`, &fakeSource{err: pool.ErrPoolExhausted}, http.StatusServiceUnavailable, "pool exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.src, nil)
			w := ts.do(t, http.MethodPost, "/api/actions/restart", tt.body)
			require.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusOK {
				var out map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
				assert.Equal(t, true, out["success"])
				assert.Len(t, tt.src.restarts, 1)
				return
			}
			assert.Contains(t, decodeError(t, w).Message, tt.msg)
			assert.Empty(t, tt.src.restarts)
		})
	}
}

func TestResolve(t *testing.T) {
	src := &fakeSource{}
	ts := newTestServer(t, src, nil)

	w := ts.do(t, http.MethodPost, "/api/actions/resolve", `{"issue_id":"disk_full_1700000000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"disk_full_1700000000"}, src.resolved)

	w = ts.do(t, http.MethodPost, "/api/actions/resolve", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "issue_id is required", decodeError(t, w).Message)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, auth.New(true, auth.ModeAPIKey, "secret"))

	w := ts.do(t, http.MethodGet, "/api/system", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, auth.MsgKeyRequired, decodeError(t, w).Message)

	w = ts.do(t, http.MethodPost, "/api/actions/restart", `{"type":"service","name":"nginx"}`, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.MsgInvalidKey, decodeError(t, w).Message)
	assert.Empty(t, ts.src.restarts)

	w = ts.do(t, http.MethodPost, "/api/actions/restart", `{"type":"service","name":"nginx"}`, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health is never behind auth")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)
	w := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["ssh_connection"])

	ts = newTestServer(t, &fakeSource{err: pool.ErrPoolExhausted}, nil)
	w = ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = nil
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, body["error"], "pool exhausted")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)

	w := ts.do(t, http.MethodOptions, "/api/system", "",
		"Origin", "http://localhost:5577",
		"Access-Control-Request-Method", "GET")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5577", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	w = ts.do(t, http.MethodGet, "/api/system", "", "Origin", "http://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)
	w := ts.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	// Immediate snapshot on connect.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, broadcast.TypeSystemUpdate, first.Type)
	assert.Equal(t, 12.5, first.Payload["cpu_usage"])

	assert.Eventually(t, func() bool { return ts.reg.Len() == 1 }, time.Second, 10*time.Millisecond)

	// A broadcast reaches the socket.
	ts.reg.Broadcast(context.Background(), broadcast.Message{Type: broadcast.TypePing, Timestamp: 42})
	var ping broadcast.Message
	require.NoError(t, conn.ReadJSON(&ping))
	assert.Equal(t, broadcast.TypePing, ping.Type)
	assert.Equal(t, int64(42), ping.Timestamp)

	// Disconnect removes the subscriber.
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return ts.reg.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
