package collector

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

const (
	maxFirewallRules  = 10
	maxRecentAttempts = 10
	maxTopEntries     = 5
)

var (
	failedIPRE   = regexp.MustCompile(`from ([\d.]+)`)
	failedUserRE = regexp.MustCompile(`for (invalid user )?(\w+)`)
	ufwDefaultRE = regexp.MustCompile(`(\w+) \((incoming|outgoing)\)`)
)

// Security gathers firewall, session and failed-login data in one probe.
func (c *Collector) Security(ctx context.Context) (SecuritySnapshot, error) {
	snap := SecuritySnapshot{
		Firewall:       ParseUFW(""),
		ActiveSessions: []Session{},
		FailedLogins:   ParseAuthLog(""),
		Timestamp:      c.now().Unix(),
	}

	res := c.run(ctx, "security", SecurityScript)
	if err := res.ConnectionError(); err != nil {
		return snap, err
	}

	sections := SplitSections(res.Stdout, 3)
	if strings.TrimSpace(sections[0]) == "" {
		c.log.Warn("no firewall output", "probe", "security")
	}
	snap.Firewall = ParseUFW(sections[0])
	snap.ActiveSessions = ParseWho(sections[1])
	snap.FailedLogins = ParseAuthLog(sections[2])
	return snap, nil
}

// ParseUFW reads `ufw status verbose`. Defaults fall back to deny incoming
// and allow outgoing when the Default line is missing.
func ParseUFW(out string) Firewall {
	fw := Firewall{
		Enabled:         strings.Contains(out, "Status: active"),
		DefaultIncoming: "deny",
		DefaultOutgoing: "allow",
		Rules:           []string{},
	}

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Default:") {
			for _, m := range ufwDefaultRE.FindAllStringSubmatch(trimmed, -1) {
				if m[2] == "incoming" {
					fw.DefaultIncoming = m[1]
				} else {
					fw.DefaultOutgoing = m[1]
				}
			}
			continue
		}
		if (strings.Contains(trimmed, "ALLOW") || strings.Contains(trimmed, "DENY")) && len(fw.Rules) < maxFirewallRules {
			fw.Rules = append(fw.Rules, trimmed)
		}
	}
	return fw
}

// ParseWho reads `who` output. The IP is set only when the fifth column is
// a parenthesized origin.
func ParseWho(out string) []Session {
	sessions := []Session{}
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}

		s := Session{User: parts[0], Terminal: parts[1], LoginTime: parts[2]}
		if len(parts) >= 4 {
			s.LoginTime = parts[2] + " " + parts[3]
		}
		if len(parts) >= 5 && strings.Contains(parts[4], "(") {
			ip := strings.Trim(parts[4], "()")
			s.IP = &ip
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// ParseAuthLog extracts failed SSH password attempts from auth.log lines.
func ParseAuthLog(out string) FailedLogins {
	attempts := []LoginAttempt{}
	ips := newCounter()
	users := newCounter()

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Failed password") || !strings.Contains(line, "ssh") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) <= 10 {
			continue
		}

		a := LoginAttempt{
			Timestamp: strings.Join(parts[:3], " "),
			RawLine:   strings.TrimSpace(line),
		}
		if m := failedIPRE.FindStringSubmatch(line); m != nil {
			ip := m[1]
			a.IP = &ip
			ips.add(ip)
		}
		if m := failedUserRE.FindStringSubmatch(line); m != nil {
			user := m[2]
			a.User = &user
			users.add(user)
		}
		attempts = append(attempts, a)
	}

	recent := attempts
	if len(recent) > maxRecentAttempts {
		recent = recent[len(recent)-maxRecentAttempts:]
	}

	return FailedLogins{
		TotalFailed:      len(attempts),
		RecentAttempts:   recent,
		TopAttackingIPs:  ips.top(maxTopEntries),
		TopTargetedUsers: users.top(maxTopEntries),
	}
}

// counter counts occurrences and remembers first-seen order for ties.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) top(n int) []Ranked {
	ranked := make([]Ranked, 0, len(c.order))
	for _, v := range c.order {
		ranked = append(ranked, Ranked{Value: v, Count: c.counts[v]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
