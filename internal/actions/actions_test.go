package actions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	cmds   []string
	result runner.Result
}

func (r *recorder) Run(_ context.Context, cmd string, timeout time.Duration) runner.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return r.result
}

func ok() *recorder {
	return &recorder{result: runner.Result{Stdout: "", Success: true}}
}

func TestRestart_Service(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "root"})

	out, err := a.Restart(context.Background(), TargetService, "nginx")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "Successfully restarted service nginx", out.Message)
	assert.True(t, out.Details.Success)
	assert.Equal(t, []string{"systemctl restart nginx"}, rec.cmds)
}

func TestRestart_ServiceAsNonRootUsesSudo(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "deploy"})

	_, err := a.Restart(context.Background(), TargetService, "redis-server")
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo -n systemctl restart redis-server"}, rec.cmds)
}

func TestRestart_Container(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "deploy"})

	out, err := a.Restart(context.Background(), TargetContainer, "web")
	require.NoError(t, err)
	assert.Equal(t, "Successfully restarted container web", out.Message)
	assert.Equal(t, []string{"docker restart web"}, rec.cmds)
}

func TestRestart_InvalidInput(t *testing.T) {
	rec := ok()
	a := New(rec, Options{})

	_, err := a.Restart(context.Background(), "vm", "web")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInput))
	assert.Equal(t, "Type must be 'service' or 'container'", errors.Summary(err))

	_, err = a.Restart(context.Background(), TargetService, "nginx; reboot")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInput))

	assert.Empty(t, rec.cmds, "nothing runs on invalid input")
}

func TestRestart_CommandFailure(t *testing.T) {
	rec := &recorder{result: runner.Result{Stderr: "Unit foo.service not found.\n", ExitStatus: 5}}
	a := New(rec, Options{User: "root"})

	out, err := a.Restart(context.Background(), TargetService, "foo")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAction))
	assert.Equal(t, "Failed to restart service foo: Unit foo.service not found.", errors.Summary(err))
	assert.False(t, out.Success)
	assert.Equal(t, 5, out.Details.ExitStatus)
}

func TestRestart_ConnectionFailure(t *testing.T) {
	rec := &recorder{result: runner.Failed(pool.ErrPoolExhausted)}
	a := New(rec, Options{})

	_, err := a.Restart(context.Background(), TargetContainer, "web")
	assert.ErrorIs(t, err, pool.ErrPoolExhausted)
}

func TestResolve_Disk(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "root"})

	out, err := a.Resolve(context.Background(), "disk_full_1700000000")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "Issue disk_full_1700000000 resolved", out.Message)
	assert.Equal(t, []string{"Cleaned temporary files and old logs"}, out.ActionsTaken)
	assert.Equal(t, []string{CleanupCommand}, rec.cmds)
}

func TestResolve_DiskWithSudo(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "ops"})

	_, err := a.Resolve(context.Background(), "disk_full_1")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"sudo -n find /tmp -type f -atime +7 -delete && sudo -n journalctl --vacuum-time=7d"},
		rec.cmds)
}

func TestResolve_Service(t *testing.T) {
	rec := ok()
	a := New(rec, Options{User: "root"})

	out, err := a.Resolve(context.Background(), "service_redis-server_1700000000")
	require.NoError(t, err)
	assert.Equal(t, []string{"Restarted redis-server service"}, out.ActionsTaken)
	assert.Equal(t, []string{"systemctl restart redis-server"}, rec.cmds)
}

func TestResolve_FailedRemediationStillSucceeds(t *testing.T) {
	rec := &recorder{result: runner.Result{ExitStatus: 1, Stderr: "denied"}}
	a := New(rec, Options{User: "root"})

	out, err := a.Resolve(context.Background(), "service_nginx_1")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.ActionsTaken)
	assert.NotNil(t, out.ActionsTaken)
}

func TestResolve_NoRemediation(t *testing.T) {
	rec := ok()
	a := New(rec, Options{})

	for _, id := range []string{"cpu_high_1", "memory_high_1", "something_else", ""} {
		out, err := a.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Empty(t, out.ActionsTaken)
	}
	assert.Empty(t, rec.cmds)
}

func TestParseIssueID(t *testing.T) {
	tests := []struct {
		id   string
		want IssueRef
	}{
		{"cpu_high_1700000000", IssueRef{Kind: collector.IssueCPUHigh}},
		{"memory_high_1700000000", IssueRef{Kind: collector.IssueMemoryHigh}},
		{"disk_full_1700000000", IssueRef{Kind: collector.IssueDiskFull}},
		{"service_nginx_1700000000", IssueRef{Kind: collector.IssueServiceStopped, Target: "nginx"}},
		{"service_my_app_1700000000", IssueRef{Kind: collector.IssueServiceStopped, Target: "my_app"}},
		{"service_getty@tty1_5", IssueRef{Kind: collector.IssueServiceStopped, Target: "getty@tty1"}},
		{"service_nginx", IssueRef{Kind: collector.IssueServiceStopped, Target: "nginx"}},
		{"service_$(reboot)_1", IssueRef{}},
		{"service_", IssueRef{}},
		{"diskette", IssueRef{}},
		{"", IssueRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIssueID(tt.id))
		})
	}
}

func TestParseIssueID_RoundTrip(t *testing.T) {
	at := time.Unix(1700000000, 0)
	for _, name := range []string{"ssh", "redis-server", "docker"} {
		ref := ParseIssueID(collector.IssueID(collector.IssueServiceStopped, name, at))
		assert.Equal(t, IssueRef{Kind: collector.IssueServiceStopped, Target: name}, ref)
	}
}
