package glif

import (
	"fmt"
	"strings"
)

// Status is the workflow state of a glif.
type Status string

const (
	StatusWIP       Status = "wip"
	StatusChecking1 Status = "checking-1"
	StatusChecking2 Status = "checking-2"
	StatusChecking3 Status = "checking-3"
	StatusDone      Status = "done"
)

// doneIndex is the robocjk.status index of StatusDone.
const doneIndex = 4

// statusByIndex is indexed by the robocjk.status lib value. The order is part
// of the stored data format.
var statusByIndex = [...]Status{
	StatusWIP,
	StatusChecking1,
	StatusChecking2,
	StatusChecking3,
	StatusDone,
}

// legacyStatusColors maps public.markColor values written before
// robocjk.status existed.
var legacyStatusColors = map[string]Status{
	"1,0,0,1":   StatusWIP,
	"1,0.5,0,1": StatusChecking1,
	"1,1,0,1":   StatusChecking2,
	"0,0.5,1,1": StatusChecking3,
	"0,1,0.5,1": StatusDone,
}

// AllStatuses returns the statuses in workflow order.
func AllStatuses() []Status {
	out := make([]Status, len(statusByIndex))
	copy(out, statusByIndex[:])
	return out
}

// StatusFromIndex maps a robocjk.status index to a Status.
func StatusFromIndex(index int) (Status, bool) {
	if index < 0 || index >= len(statusByIndex) {
		return "", false
	}
	return statusByIndex[index], true
}

// StatusFromColor maps a legacy public.markColor value to a Status.
func StatusFromColor(color string) (Status, bool) {
	status, ok := legacyStatusColors[strings.TrimSpace(color)]
	return status, ok
}

// ParseStatus converts a status string into a Status.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range statusByIndex {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Index returns the robocjk.status index of s, or -1.
func (s Status) Index() int {
	for i, status := range statusByIndex {
		if status == s {
			return i
		}
	}
	return -1
}

// ResolveStatus derives the canonical status from parsed glif data: the
// explicit robocjk.status index first, then the legacy mark color, then WIP.
func ResolveStatus(d *Data) Status {
	if d == nil {
		return StatusWIP
	}
	if index, ok := d.Status(); ok {
		if status, ok := StatusFromIndex(index); ok {
			return status
		}
	}
	if status, ok := StatusFromColor(d.StatusColor()); ok {
		return status
	}
	return StatusWIP
}
