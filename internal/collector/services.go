package collector

import (
	"context"
	"strings"
)

// Services reports systemd state for each monitored service.
func (c *Collector) Services(ctx context.Context) (ServicesSummary, error) {
	if len(c.services) == 0 {
		return ParseServices("", nil), nil
	}

	res := c.run(ctx, "services", ServicesScript(c.services))
	if err := res.ConnectionError(); err != nil {
		return ParseServices("", c.services), err
	}

	summary := ParseServices(res.Stdout, c.services)
	for name, st := range summary.Services {
		if st.Status == StatusUnknown {
			c.log.Warn("service state unknown", "service", name)
		}
	}
	return summary, nil
}

// ParseServices reads "<name> <is-active> <is-enabled>" lines. Every name in
// names appears in the result; services without a usable line are
// "unknown".
func ParseServices(out string, names []string) ServicesSummary {
	seen := make(map[string]ServiceState, len(names))
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		enabled := len(fields) >= 3 && fields[2] == "enabled"

		st := ServiceState{Service: name, Enabled: enabled}
		switch fields[1] {
		case "active":
			st.Active = true
			st.Status = StatusRunning
		case "inactive", "failed", "activating", "deactivating":
			st.Status = StatusStopped
		default:
			st.Status = StatusUnknown
		}
		seen[name] = st
	}

	summary := ServicesSummary{Services: make(map[string]ServiceState, len(names))}
	for _, name := range names {
		st, ok := seen[name]
		if !ok {
			st = ServiceState{Service: name, Status: StatusUnknown}
		}
		summary.Services[name] = st
		if st.Active {
			summary.HealthyCount++
		} else {
			summary.UnhealthyCount++
		}
	}
	return summary
}
