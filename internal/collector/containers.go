package collector

import (
	"context"
	"encoding/json"
	"strings"
)

// Containers lists docker containers on the host.
func (c *Collector) Containers(ctx context.Context) (ContainersSummary, error) {
	res := c.run(ctx, "containers", ContainersScript)
	if err := res.ConnectionError(); err != nil {
		return emptyContainers(), err
	}
	if !res.Success {
		s := emptyContainers()
		s.Error = strings.TrimSpace(res.Stderr)
		if s.Error == "" {
			s.Error = "docker ps failed"
		}
		return s, nil
	}

	summary, skipped := ParseContainers(res.Stdout)
	if skipped > 0 {
		c.log.Warn("skipped unparseable container lines", "count", skipped)
	}
	return summary, nil
}

func emptyContainers() ContainersSummary {
	return ContainersSummary{Containers: []ContainerState{}}
}

// dockerPS is the subset of `docker ps --format '{{json .}}'` we read.
type dockerPS struct {
	ID     string `json:"ID"`
	Names  string `json:"Names"`
	Image  string `json:"Image"`
	Status string `json:"Status"`
	State  string `json:"State"`
}

// ParseContainers reads one JSON object per line. Lines that fail to decode
// are skipped and counted.
func ParseContainers(out string) (summary ContainersSummary, skipped int) {
	summary = emptyContainers()

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ps dockerPS
		if err := json.Unmarshal([]byte(line), &ps); err != nil {
			skipped++
			continue
		}

		id := ps.ID
		if len(id) > 12 {
			id = id[:12]
		}
		state := strings.ToLower(ps.State)

		summary.Containers = append(summary.Containers, ContainerState{
			ID:     id,
			Name:   ps.Names,
			Image:  ps.Image,
			Status: ps.Status,
			State:  state,
		})
		if state == "running" {
			summary.Running++
		}
	}

	summary.Total = len(summary.Containers)
	summary.Stopped = summary.Total - summary.Running
	return summary, skipped
}
