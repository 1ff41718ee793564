package collector

import (
	"context"
	"sync"
	"time"

	"github.com/sshsshje/sshsshje/internal/runner"
)

// fakeExec answers commands from a fixed table; unknown commands exit 127.
type fakeExec struct {
	mu      sync.Mutex
	results map[string]runner.Result
	calls   []string
}

func newFakeExec() *fakeExec {
	return &fakeExec{results: make(map[string]runner.Result)}
}

func (f *fakeExec) on(cmd, stdout string) *fakeExec {
	f.results[cmd] = runner.Result{Stdout: stdout, Success: true}
	return f
}

func (f *fakeExec) onResult(cmd string, res runner.Result) *fakeExec {
	f.results[cmd] = res
	return f
}

func (f *fakeExec) Run(_ context.Context, cmd string, _ time.Duration) runner.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if res, ok := f.results[cmd]; ok {
		return res
	}
	return runner.Result{Stderr: "command not found", ExitStatus: 127}
}

func (f *fakeExec) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var fixedNow = time.Unix(1700000000, 0)

func fixedClock() time.Time { return fixedNow }
