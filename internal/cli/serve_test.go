package cli

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_HealthAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, testConfig(), newMock(), logger.Noop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health telemetry.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, telemetry.StatusHealthy, health.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestSystemSnapshot(t *testing.T) {
	v, err := systemSnapshot(newMock())(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, v)
}
