package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// clearEnv blanks every bound variable so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sshsshje.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, SourceRemote, cfg.Source)
	assert.Equal(t, 1511, cfg.Remote.Port)
	assert.Equal(t, "root", cfg.Remote.User)
	assert.False(t, cfg.Remote.StrictHostKey)
	assert.Equal(t, 5, cfg.Pool.MaxSize)
	assert.Equal(t, 10*time.Second, cfg.Pool.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Commands.DefaultTimeout)
	assert.Equal(t, 60*time.Second, cfg.Commands.ActionTimeout)
	assert.Equal(t, 5*time.Second, cfg.Commands.HealthTimeout)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Equal(t, []string{"http://localhost:5577", "http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, AuthModeAPIKey, cfg.Auth.Mode)
	assert.Equal(t, 30*time.Second, cfg.Broadcast.Interval)
	assert.Equal(t, 60*time.Second, cfg.Broadcast.ErrorBackoff)
	assert.Equal(t, []string{"ssh", "nginx", "docker", "postgresql", "redis-server"}, cfg.Monitor.Services)
	// No host, so no default applications.
	assert.Empty(t, cfg.Monitor.Applications)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSH_HOST", "10.0.0.5")
	t.Setenv("SSH_PORT", "2222")
	t.Setenv("SSH_USERNAME", "monitor")
	t.Setenv("SSH_PASSWORD", "hunter2")
	t.Setenv("ENABLE_AUTH", "true")
	t.Setenv("API_KEY", "secret")
	t.Setenv("TELEMETRY_SOURCE", "MOCK")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Remote.Host)
	assert.Equal(t, 2222, cfg.Remote.Port)
	assert.Equal(t, "monitor", cfg.Remote.User)
	assert.Equal(t, "hunter2", cfg.Remote.Password)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, SourceMock, cfg.Source)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)

	assert.Equal(t, "10.0.0.5", cfg.Remote.AppHost)
	assert.Equal(t, "http://10.0.0.5:8001/api/health", cfg.Monitor.Applications["cbl_backend"])
	assert.Len(t, cfg.Monitor.Applications, 4)
}

func TestLoad_MockWithoutHostChecksLocalhost(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEMETRY_SOURCE", "mock")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Remote.Host)
	assert.Equal(t, DefaultAppHost, cfg.Remote.AppHost)
	assert.Len(t, cfg.Monitor.Applications, 4)
	assert.Equal(t, "http://localhost:8080/guacamole", cfg.Monitor.Applications["guacamole"])
}

func TestLoad_RemoteHostOverridesAppHost(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSH_HOST", "bastion")
	t.Setenv("REMOTE_HOST", "203.0.113.9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://203.0.113.9:9001", cfg.Monitor.Applications["cbl_frontend"])
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source: remote
remote:
  host: monitor.example.com
  port: 22
  username: ops
  key_path: ~/.ssh/monitor_ed25519
pool:
  max_size: 3
  probe_timeout: 2s
monitor:
  services: [nginx, docker]
  applications:
    api: http://monitor.example.com:8001/health
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monitor.example.com", cfg.Remote.Host)
	assert.Equal(t, 22, cfg.Remote.Port)
	assert.Equal(t, "ops", cfg.Remote.User)
	assert.Equal(t, 3, cfg.Pool.MaxSize)
	assert.Equal(t, 2*time.Second, cfg.Pool.ProbeTimeout)
	assert.Equal(t, []string{"nginx", "docker"}, cfg.Monitor.Services)
	assert.Equal(t, map[string]string{"api": "http://monitor.example.com:8001/health"}, cfg.Monitor.Applications)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh/monitor_ed25519"), cfg.Remote.KeyPath)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "remote:\n  host: from-file\n")
	t.Setenv("SSH_HOST", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Remote.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "remote: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestApplicationList_Sorted(t *testing.T) {
	cfg := &Config{Monitor: MonitorConfig{Applications: map[string]string{
		"zeta":  "http://z",
		"alpha": "http://a",
	}}}

	apps := cfg.ApplicationList()
	require.Len(t, apps, 2)
	assert.Equal(t, "alpha", apps[0].Key)
	assert.Equal(t, "http://z", apps[1].URL)
}

func TestTarget(t *testing.T) {
	cfg := &Config{Remote: RemoteConfig{Host: "h", Port: 2200, User: "u", KeyPath: "/k", StrictHostKey: true}}

	target := cfg.Target()
	assert.Equal(t, "u@h:2200", target.String())
	assert.Equal(t, "/k", target.KeyPath)
	assert.True(t, target.StrictHostKey)
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		Remote:  RemoteConfig{Host: "h", Password: "pw"},
		Auth:    AuthConfig{APIKey: "key"},
		Monitor: MonitorConfig{Applications: map[string]string{"a": "http://a"}},
	}

	r := cfg.Redacted()
	assert.Equal(t, redacted, r.Remote.Password)
	assert.Equal(t, redacted, r.Auth.APIKey)
	assert.Equal(t, "pw", cfg.Remote.Password, "original must be untouched")

	r.Monitor.Applications["b"] = "http://b"
	assert.Len(t, cfg.Monitor.Applications, 1)

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "pw\n")
	assert.Contains(t, string(out), "host: h")
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandTilde(""))
	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "keys/id"), ExpandTilde("~/keys/id"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
}
