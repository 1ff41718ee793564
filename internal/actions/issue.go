package actions

import (
	"strconv"
	"strings"

	"github.com/sshsshje/sshsshje/internal/collector"
)

// IssueRef is a parsed issue ID.
type IssueRef struct {
	Kind   collector.IssueKind
	Target string
}

// ParseIssueID maps an ID produced by collector.IssueID back to its kind and
// target. Unrecognized IDs, and service IDs whose name is not a valid unit
// name, yield a zero Kind.
func ParseIssueID(id string) IssueRef {
	for _, kind := range []collector.IssueKind{
		collector.IssueCPUHigh,
		collector.IssueMemoryHigh,
		collector.IssueDiskFull,
	} {
		if strings.HasPrefix(id, kind.IDPrefix()+"_") {
			return IssueRef{Kind: kind}
		}
	}

	prefix := collector.IssueServiceStopped.IDPrefix() + "_"
	if !strings.HasPrefix(id, prefix) {
		return IssueRef{}
	}
	rest := strings.TrimPrefix(id, prefix)

	// Strip the trailing unix timestamp; the name itself may contain "_".
	if i := strings.LastIndex(rest, "_"); i > 0 {
		if _, err := strconv.ParseInt(rest[i+1:], 10, 64); err == nil {
			rest = rest[:i]
		}
	}
	if !collector.ValidServiceName(rest) {
		return IssueRef{}
	}
	return IssueRef{Kind: collector.IssueServiceStopped, Target: rest}
}
