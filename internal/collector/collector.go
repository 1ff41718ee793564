// Package collector turns probe output into typed snapshots: system
// resources, services, containers, application reachability, security
// posture, diagnostics and a synthetic history series.
//
// Collectors degrade field by field. A failed or unparseable probe yields
// zero values and a warning log, never an error. The only error a collector
// returns is a connection-level failure (pool exhausted or host unreachable)
// reported by runner.Result.ConnectionError.
package collector

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// DefaultServices are monitored when no list is configured.
var DefaultServices = []string{"ssh", "nginx", "docker", "postgresql", "redis-server"}

// DefaultAppTimeout bounds each application reachability check.
const DefaultAppTimeout = 5 * time.Second

// Application is one HTTP endpoint checked by Applications.
type Application struct {
	Key string // e.g. "cbl_backend"
	URL string
}

// DefaultApplications returns the stock endpoint set on host.
func DefaultApplications(host string) []Application {
	return []Application{
		{Key: "cbl_frontend", URL: "http://" + host + ":9001"},
		{Key: "cbl_backend", URL: "http://" + host + ":8001/api/health"},
		{Key: "cbl_mobile", URL: "http://" + host + ":8081"},
		{Key: "guacamole", URL: "http://" + host + ":8080/guacamole"},
	}
}

// Options configures a Collector.
type Options struct {
	Services       []string
	Applications   []Application
	CommandTimeout time.Duration
	AppTimeout     time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
	Now            func() time.Time
}

// Collector runs probes through an Executor.
type Collector struct {
	exec     runner.Executor
	services []string
	apps     []Application
	timeout  time.Duration
	http     *http.Client
	log      *slog.Logger
	now      func() time.Time
}

// New builds a Collector. Service names failing ValidServiceName are
// dropped with a warning.
func New(exec runner.Executor, opts Options) *Collector {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	log = log.With("component", "collector")

	names := opts.Services
	if len(names) == 0 {
		names = DefaultServices
	}
	services := make([]string, 0, len(names))
	for _, name := range names {
		if !ValidServiceName(name) {
			log.Warn("ignoring invalid service name", "service", name)
			continue
		}
		services = append(services, name)
	}

	client := opts.HTTPClient
	if client == nil {
		appTimeout := opts.AppTimeout
		if appTimeout <= 0 {
			appTimeout = DefaultAppTimeout
		}
		client = &http.Client{Timeout: appTimeout}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = runner.DefaultTimeout
	}

	return &Collector{
		exec:     exec,
		services: services,
		apps:     opts.Applications,
		timeout:  timeout,
		http:     client,
		log:      log,
		now:      now,
	}
}

// ServiceNames returns the monitored service names.
func (c *Collector) ServiceNames() []string {
	out := make([]string, len(c.services))
	copy(out, c.services)
	return out
}

// run executes one probe and logs non-zero exits.
func (c *Collector) run(ctx context.Context, name, script string) runner.Result {
	res := c.exec.Run(ctx, script, c.timeout)
	if !res.Success && res.ConnectionError() == nil {
		c.log.Warn("probe exited non-zero",
			"probe", name,
			"exit_status", res.ExitStatus,
			"stderr", snippet(res.Stderr))
	}
	return res
}

func (c *Collector) warnParse(probe, section string, err error, raw string) {
	c.log.Warn("parse failed",
		"probe", probe,
		"section", section,
		"error", err.Error(),
		"raw", snippet(raw))
}

func snippet(s string) string {
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
