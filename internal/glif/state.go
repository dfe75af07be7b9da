package glif

import (
	"maps"
	"time"
)

// StatusState is the workflow bookkeeping stored on every lockable glif.
type StatusState struct {
	Status             Status
	PreviousStatus     Status
	StatusChangedAt    *time.Time
	StatusDowngraded   bool
	StatusDowngradedAt *time.Time
}

// Apply updates the state for a save that replaces prev with next. prev is
// nil on the first save of a record.
//
// A variation source that drops from done raises the downgrade flag once; a
// source that reaches done again clears it. A downgrade wins when both occur
// in the same save. The canonical status is then re-resolved from next.
func (s *StatusState) Apply(prev, next *Data, now time.Time) {
	if prev != nil && prev.OK() && next != nil && next.OK() {
		s.applyDowngrade(prev.StatusWithVariations(), next.StatusWithVariations(), now)
	}

	current := s.Status
	if current == "" {
		current = StatusWIP
	}
	resolved := ResolveStatus(next)
	if resolved != current {
		s.PreviousStatus = current
		s.Status = resolved
		changed := now
		s.StatusChangedAt = &changed
		return
	}
	s.Status = current
}

func (s *StatusState) applyDowngrade(before, after map[string]int, now time.Time) {
	if maps.Equal(before, after) {
		return
	}
	downgraded, upgraded := false, false
	for key, value := range after {
		old := before[key]
		if old == doneIndex && value < doneIndex {
			downgraded = true
		}
		if old < doneIndex && value == doneIndex {
			upgraded = true
		}
	}
	switch {
	case downgraded:
		if !s.StatusDowngraded {
			s.StatusDowngraded = true
			at := now
			s.StatusDowngradedAt = &at
		}
	case upgraded && s.StatusDowngraded:
		s.StatusDowngraded = false
		s.StatusDowngradedAt = nil
	}
}
