package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/logger"
)

// mockHistoryPoints is the length of the fabricated history series.
const mockHistoryPoints = 50

// MockOptions configures a Mock source.
type MockOptions struct {
	// Applications are still checked for real over HTTP.
	Applications []collector.Application
	HTTPClient   *http.Client
	Logger       *slog.Logger
	// Seed fixes the random generator; zero seeds from the clock.
	Seed int64
	Now  func() time.Time
}

// Mock fabricates plausible snapshots for demos and frontend work. Actions
// validate their input, take no action and report Mock: true.
type Mock struct {
	mu   sync.Mutex
	rng  *rand.Rand
	col  *collector.Collector
	acts *actions.Actions
	log  *slog.Logger
	now  func() time.Time
}

// NewMock creates a Mock source.
func NewMock(opts MockOptions) *Mock {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// The collector is only used for application checks, which never touch
	// the executor.
	col := collector.New(nil, collector.Options{
		Applications: opts.Applications,
		HTTPClient:   opts.HTTPClient,
		Logger:       log,
		Now:          now,
	})

	return &Mock{
		rng:  rand.New(rand.NewSource(seed)),
		col:  col,
		acts: actions.New(nil, actions.Options{Logger: log}),
		log:  log.With("component", "mock"),
		now:  now,
	}
}

func (m *Mock) Name() string { return config.SourceMock }

// float returns base + rand*spread.
func (m *Mock) float(base, spread float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return base + m.rng.Float64()*spread
}

// jitter returns base +/- spread.
func (m *Mock) jitter(base, spread int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return base - spread + m.rng.Int63n(2*spread+1)
}

func (m *Mock) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(n)
}

func (m *Mock) chance(p float64) bool {
	return m.float(0, 1) < p
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func (m *Mock) System(context.Context) (collector.SystemMetrics, error) {
	return collector.SystemMetrics{
		CPUUsage: round2(m.float(15, 30)),
		Memory: collector.Memory{
			Total:     16777216000,
			Available: m.jitter(12_000_000_000, 2_000_000_000),
			Percent:   round2(m.float(25, 30)),
			Used:      m.jitter(4_000_000_000, 1_000_000_000),
			Free:      12_000_000_000,
		},
		Disk: map[string]collector.DiskUsage{
			"/": {
				Total:   524288000000,
				Used:    m.jitter(200_000_000_000, 50_000_000_000),
				Free:    300_000_000_000,
				Percent: round2(m.float(38, 10)),
			},
		},
		LoadAverage: collector.LoadAverage{
			Load1:  round2(m.float(0.5, 1)),
			Load5:  round2(m.float(0.7, 1)),
			Load15: round2(m.float(0.9, 1)),
		},
		Network: collector.Network{
			BytesSent:   1048576000 + int64(m.intn(1_000_000)),
			BytesRecv:   2097152000 + int64(m.intn(1_000_000)),
			PacketsSent: 1_000_000 + int64(m.intn(10_000)),
			PacketsRecv: 1_500_000 + int64(m.intn(10_000)),
		},
		Timestamp: m.now().Unix(),
	}, nil
}

func (m *Mock) Services(context.Context) (collector.ServicesSummary, error) {
	summary := collector.ServicesSummary{Services: map[string]collector.ServiceState{}}
	for _, name := range collector.DefaultServices {
		active := true
		if name == "redis-server" {
			active = m.chance(0.5)
		}
		status := collector.StatusRunning
		if !active {
			status = collector.StatusStopped
		}
		summary.Services[name] = collector.ServiceState{
			Service: name,
			Active:  active,
			Enabled: true,
			Status:  status,
		}
		if active {
			summary.HealthyCount++
		} else {
			summary.UnhealthyCount++
		}
	}
	return summary, nil
}

func (m *Mock) Containers(context.Context) (collector.ContainersSummary, error) {
	browserStatus, browserState := "Created", "exited"
	if m.chance(0.5) {
		browserStatus = "Up 1 hour"
	}
	if m.chance(0.5) {
		browserState = "running"
	}

	list := []collector.ContainerState{
		{ID: "da74c2adae9b", Name: "guacamole-web", Image: "guacamole/guacamole", Status: "Up 2 hours", State: "running"},
		{ID: "8b3f4d2e1a7c", Name: "guacamole-guacd", Image: "guacamole/guacd", Status: "Up 2 hours", State: "running"},
		{ID: "9c5e6f8a2b1d", Name: "guacamole-db", Image: "mariadb", Status: "Up 2 hours", State: "running"},
		{ID: "78cfa619689a", Name: "minibrowser", Image: "minio/browser", Status: browserStatus, State: browserState},
	}

	summary := collector.ContainersSummary{Total: len(list), Containers: list}
	for _, c := range list {
		if c.State == "running" {
			summary.Running++
		}
	}
	summary.Stopped = summary.Total - summary.Running
	return summary, nil
}

// Applications performs real checks against the configured endpoints.
func (m *Mock) Applications(ctx context.Context) collector.ApplicationsSummary {
	return m.col.Applications(ctx)
}

func strPtr(s string) *string { return &s }

func (m *Mock) Security(context.Context) (collector.SecuritySnapshot, error) {
	return collector.SecuritySnapshot{
		Firewall: collector.Firewall{
			Enabled:         true,
			DefaultIncoming: "deny",
			DefaultOutgoing: "allow",
			Rules:           []string{"22/tcp ALLOW IN", "80/tcp ALLOW IN", "443/tcp ALLOW IN", "8080/tcp ALLOW IN"},
		},
		ActiveSessions: []collector.Session{
			{User: "root", Terminal: "pts/0", LoginTime: "Dec 28 04:15", IP: strPtr("192.168.1.100")},
			{User: "cbl", Terminal: "pts/1", LoginTime: "Dec 28 03:42", IP: strPtr("192.168.1.101")},
		},
		FailedLogins: collector.FailedLogins{
			TotalFailed: 23,
			RecentAttempts: []collector.LoginAttempt{
				{Timestamp: "Dec 28 04:20", User: strPtr("admin"), IP: strPtr("203.0.113.5"), RawLine: "Failed password for admin from 203.0.113.5"},
				{Timestamp: "Dec 28 04:18", User: strPtr("root"), IP: strPtr("203.0.113.12"), RawLine: "Failed password for root from 203.0.113.12"},
			},
			TopAttackingIPs: []collector.Ranked{
				{Value: "203.0.113.5", Count: 8},
				{Value: "203.0.113.12", Count: 5},
				{Value: "198.51.100.3", Count: 3},
			},
			TopTargetedUsers: []collector.Ranked{
				{Value: "admin", Count: 12},
				{Value: "root", Count: 8},
				{Value: "user", Count: 3},
			},
		},
		Timestamp: m.now().Unix(),
	}, nil
}

func (m *Mock) Diagnostics(context.Context) (collector.Diagnostics, error) {
	now := m.now()
	issues := []collector.Issue{}
	if m.chance(0.3) {
		issues = append(issues, collector.Issue{
			ID:             collector.IssueID(collector.IssueDiskFull, "", now),
			Kind:           collector.IssueDiskFull,
			Severity:       collector.SeverityWarning,
			Category:       collector.CategorySystem,
			Title:          "Disk usage approaching threshold",
			Description:    "Root partition is at 42% capacity",
			Resolution:     "Clean temporary files and old logs",
			CanAutoResolve: true,
		})
	}
	return collector.Diagnostics{
		Timestamp:   now.Unix(),
		Issues:      issues,
		HealthScore: 75 + m.intn(21),
	}, nil
}

// History returns mockHistoryPoints random points spread evenly over days.
func (m *Mock) History(_ context.Context, days int) (collector.History, error) {
	now := m.now().Unix()
	days = collector.ClampDays(days)
	step := int64(days) * 86400 / mockHistoryPoints

	points := make([]collector.HistoryPoint, mockHistoryPoints)
	for i := range points {
		points[i] = collector.HistoryPoint{
			Timestamp:   now - int64(mockHistoryPoints-1-i)*step,
			CPUUsage:    round2(m.float(30, 40)),
			MemoryUsage: round2(m.float(40, 30)),
			DiskUsage:   round2(m.float(30, 15)),
			LoadAverage: round2(m.float(0.5, 1.5)),
		}
	}

	return collector.History{
		Metrics: points,
		Alerts: []collector.HistoryAlert{{
			Timestamp: now - 3600,
			Severity:  collector.SeverityWarning,
			Category:  collector.CategorySystem,
			Message:   "High CPU usage detected",
			Resolved:  true,
		}},
		ServiceEvents: []collector.ServiceEvent{{
			Timestamp: now - 1800,
			Service:   "nginx",
			Event:     "restarted",
			Details:   "Automatic restart due to configuration change",
		}},
		Synthetic: true,
	}, nil
}

// Restart validates the request like the real thing and then pretends.
func (m *Mock) Restart(_ context.Context, kind, name string) (actions.RestartOutcome, error) {
	if _, err := m.acts.RestartCommand(kind, name); err != nil {
		return actions.RestartOutcome{}, err
	}
	m.log.Info("mock restart", "type", kind, "name", name)
	return actions.RestartOutcome{
		Success: true,
		Message: fmt.Sprintf("Successfully restarted %s %s", kind, name),
		Mock:    true,
	}, nil
}

func (m *Mock) Resolve(_ context.Context, issueID string) (actions.ResolveOutcome, error) {
	if issueID == "" {
		return actions.ResolveOutcome{}, errors.New(errors.ErrInput, "issue_id is required", "")
	}
	m.log.Info("mock resolve", "issue", issueID)
	return actions.ResolveOutcome{
		Success:      true,
		Message:      fmt.Sprintf("Issue %s resolved", issueID),
		ActionsTaken: []string{},
		Mock:         true,
	}, nil
}

// Health is always healthy; there is no transport to fail.
func (m *Mock) Health(context.Context) Health {
	return Health{
		Status:        StatusHealthy,
		SSHConnection: true,
		Source:        m.Name(),
		Timestamp:     m.now().Unix(),
	}
}

func (m *Mock) Close() error { return nil }

var _ Source = (*Mock)(nil)
