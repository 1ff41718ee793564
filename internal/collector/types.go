package collector

import (
	"encoding/json"
	"fmt"
)

// SystemMetrics is one point-in-time view of host resource usage.
type SystemMetrics struct {
	CPUUsage    float64              `json:"cpu_usage"`
	Memory      Memory               `json:"memory"`
	Disk        map[string]DiskUsage `json:"disk"`
	LoadAverage LoadAverage          `json:"load_average"`
	Network     Network              `json:"network"`
	Timestamp   int64                `json:"timestamp"`
}

// RootDisk returns usage of "/", or the zero value when it wasn't collected.
func (m SystemMetrics) RootDisk() DiskUsage {
	return m.Disk["/"]
}

// Memory is in bytes except Percent.
type Memory struct {
	Total     int64   `json:"total"`
	Available int64   `json:"available"`
	Percent   float64 `json:"percent"`
	Used      int64   `json:"used"`
	Free      int64   `json:"free"`
}

// DiskUsage is in bytes except Percent.
type DiskUsage struct {
	Total   int64   `json:"total"`
	Used    int64   `json:"used"`
	Free    int64   `json:"free"`
	Percent float64 `json:"percent"`
}

type LoadAverage struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Network holds counters summed across all interfaces since boot.
type Network struct {
	BytesSent   int64 `json:"bytes_sent"`
	BytesRecv   int64 `json:"bytes_recv"`
	PacketsSent int64 `json:"packets_sent"`
	PacketsRecv int64 `json:"packets_recv"`
}

// Service status values.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
	StatusUnknown = "unknown"
)

type ServiceState struct {
	Service string `json:"service"`
	Active  bool   `json:"active"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

type ServicesSummary struct {
	Services       map[string]ServiceState `json:"services"`
	HealthyCount   int                     `json:"healthy_count"`
	UnhealthyCount int                     `json:"unhealthy_count"`
}

type ContainerState struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Status string `json:"status"`
	State  string `json:"state"`
}

// ContainersSummary lists every container. Unhealthy is always 0: health
// check output is not parsed.
type ContainersSummary struct {
	Total      int              `json:"total"`
	Running    int              `json:"running"`
	Stopped    int              `json:"stopped"`
	Unhealthy  int              `json:"unhealthy"`
	Containers []ContainerState `json:"containers"`
	Error      string           `json:"error,omitempty"`
}

// AppHealth is the outcome of one reachability check. StatusCode and
// ResponseTime are null when the request itself failed.
type AppHealth struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Healthy      bool     `json:"healthy"`
	StatusCode   *int     `json:"status_code"`
	ResponseTime *float64 `json:"response_time"`
	Error        *string  `json:"error"`
}

type ApplicationsSummary struct {
	Applications   map[string]AppHealth `json:"applications"`
	HealthyCount   int                  `json:"healthy_count"`
	UnhealthyCount int                  `json:"unhealthy_count"`
}

type Firewall struct {
	Enabled         bool     `json:"enabled"`
	DefaultIncoming string   `json:"default_incoming"`
	DefaultOutgoing string   `json:"default_outgoing"`
	Rules           []string `json:"rules"`
}

type Session struct {
	User      string  `json:"user"`
	Terminal  string  `json:"terminal"`
	LoginTime string  `json:"login_time"`
	IP        *string `json:"ip"`
}

type LoginAttempt struct {
	Timestamp string  `json:"timestamp"`
	Success   bool    `json:"success"`
	User      *string `json:"user"`
	IP        *string `json:"ip"`
	RawLine   string  `json:"raw_line"`
}

// Ranked is a value with its occurrence count. It encodes as a two-element
// JSON array, e.g. ["203.0.113.9", 14].
type Ranked struct {
	Value string
	Count int
}

func (r Ranked) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Value, r.Count})
}

func (r *Ranked) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranked value: want [value, count], got %s", data)
	}
	if err := json.Unmarshal(pair[0], &r.Value); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Count)
}

type FailedLogins struct {
	TotalFailed      int            `json:"total_failed"`
	RecentAttempts   []LoginAttempt `json:"recent_attempts"`
	TopAttackingIPs  []Ranked       `json:"top_attacking_ips"`
	TopTargetedUsers []Ranked       `json:"top_targeted_users"`
}

type SecuritySnapshot struct {
	Firewall       Firewall     `json:"firewall"`
	ActiveSessions []Session    `json:"active_sessions"`
	FailedLogins   FailedLogins `json:"failed_logins"`
	Timestamp      int64        `json:"timestamp"`
}

// Issue severities and categories.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	CategorySystem  = "system"
	CategoryService = "service"
)

// Issue is one problem found by Diagnose.
type Issue struct {
	ID             string    `json:"id"`
	Kind           IssueKind `json:"kind"`
	Target         string    `json:"target,omitempty"`
	Severity       string    `json:"severity"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Resolution     string    `json:"resolution"`
	CanAutoResolve bool      `json:"can_auto_resolve"`
}

type Diagnostics struct {
	Timestamp   int64   `json:"timestamp"`
	Issues      []Issue `json:"issues"`
	HealthScore int     `json:"health_score"`
}

type HistoryPoint struct {
	Timestamp   int64   `json:"timestamp"`
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	DiskUsage   float64 `json:"disk_usage"`
	LoadAverage float64 `json:"load_average"`
}

type HistoryAlert struct {
	Timestamp int64  `json:"timestamp"`
	Severity  string `json:"severity"`
	Category  string `json:"category,omitempty"`
	Message   string `json:"message"`
	Resolved  bool   `json:"resolved"`
}

type ServiceEvent struct {
	Timestamp int64  `json:"timestamp"`
	Service   string `json:"service"`
	Event     string `json:"event"`
	Details   string `json:"details,omitempty"`
}

// History is a fabricated series. Synthetic is always true for values
// produced by this package; nothing is stored between requests.
type History struct {
	Metrics       []HistoryPoint `json:"metrics"`
	Alerts        []HistoryAlert `json:"alerts"`
	ServiceEvents []ServiceEvent `json:"service_events"`
	Synthetic     bool           `json:"synthetic"`
}
