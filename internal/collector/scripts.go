package collector

import (
	"fmt"
	"regexp"
	"strings"
)

// ScriptVersion identifies the set of probe scripts below. Parsers in this
// package understand exactly this version's output.
const ScriptVersion = "1"

// SectionSeparator is printed on its own line between batched outputs.
const SectionSeparator = "---"

const sep = `; echo "` + SectionSeparator + `"; `

// SystemScript samples /proc/stat twice one second apart, then dumps memory,
// root filesystem, load and network counters.
//
// Sections: 0 cpu samples, 1 meminfo, 2 df, 3 loadavg, 4 net/dev.
const SystemScript = `head -n1 /proc/stat; sleep 1; head -n1 /proc/stat` + sep +
	`cat /proc/meminfo` + sep +
	`df -P -B1 /` + sep +
	`cat /proc/loadavg` + sep +
	`cat /proc/net/dev`

// ContainersScript prints one JSON object per container.
const ContainersScript = `docker ps -a --format '{{json .}}'`

// SecurityScript dumps firewall state, logged-in sessions and the tail of
// the auth log.
//
// Sections: 0 ufw, 1 who, 2 auth.log.
const SecurityScript = `(ufw status verbose 2>/dev/null || sudo -n ufw status verbose 2>/dev/null)` + sep +
	`who` + sep +
	`(tail -100 /var/log/auth.log 2>/dev/null || sudo -n tail -100 /var/log/auth.log 2>/dev/null)`

var serviceNameRE = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)

// ValidServiceName reports whether name is safe to place in a shell command
// as a systemd unit or container name.
func ValidServiceName(name string) bool {
	return len(name) <= 128 && serviceNameRE.MatchString(name)
}

// ServicesScript prints "<name> <is-active> <is-enabled>" for each service.
// Names must already have passed ValidServiceName.
func ServicesScript(names []string) string {
	return fmt.Sprintf(
		`for s in %s; do printf '%%s %%s %%s\n' "$s" "$(systemctl is-active "$s" 2>/dev/null | head -n1)" "$(systemctl is-enabled "$s" 2>/dev/null | head -n1)"; done`,
		strings.Join(names, " "))
}

// SplitSections splits batched output on separator lines. The result always
// has exactly n entries; missing sections are empty.
func SplitSections(output string, n int) []string {
	sections := make([]string, n)
	idx := 0
	var b strings.Builder
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == SectionSeparator {
			if idx < n {
				sections[idx] = b.String()
			}
			idx++
			b.Reset()
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if idx < n {
		sections[idx] = b.String()
	}
	return sections
}
