package glif_test

import (
	"testing"
	"time"

	"rcjk/internal/glif"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name string
		spec glifSpec
		want glif.Status
	}{
		{"explicit done", glifSpec{name: "x", status: intPtr(4)}, glif.StatusDone},
		{"explicit checking", glifSpec{name: "x", status: intPtr(1)}, glif.StatusChecking1},
		{"explicit wins over color", glifSpec{name: "x", status: intPtr(3), color: "1,0,0,1"}, glif.StatusChecking3},
		{"legacy red", glifSpec{name: "x", color: "1,0,0,1"}, glif.StatusWIP},
		{"legacy green", glifSpec{name: "x", color: "0,1,0.5,1"}, glif.StatusDone},
		{"unknown color", glifSpec{name: "x", color: "0.2,0.2,0.2,1"}, glif.StatusWIP},
		{"out of range index", glifSpec{name: "x", status: intPtr(9), color: "1,1,0,1"}, glif.StatusChecking2},
		{"neither", glifSpec{name: "x"}, glif.StatusWIP},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := glif.ResolveStatus(glif.Parse(buildGlif(tc.spec))); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestStatusFromColor(t *testing.T) {
	tests := map[string]glif.Status{
		"1,0,0,1":     glif.StatusWIP,
		"1,0.5,0,1":   glif.StatusChecking1,
		"1,1,0,1":     glif.StatusChecking2,
		"0,0.5,1,1":   glif.StatusChecking3,
		" 0,1,0.5,1 ": glif.StatusDone,
	}
	for color, want := range tests {
		got, ok := glif.StatusFromColor(color)
		if !ok || got != want {
			t.Fatalf("StatusFromColor(%q) = %s, %v; want %s", color, got, ok, want)
		}
	}
	if _, ok := glif.StatusFromColor("0.2,0.2,0.2,1"); ok {
		t.Fatal("expected unknown color to be unmapped")
	}
}

func TestStatusIndexRoundTrip(t *testing.T) {
	for i, status := range glif.AllStatuses() {
		if status.Index() != i {
			t.Fatalf("%s index %d, want %d", status, status.Index(), i)
		}
		parsed, err := glif.ParseStatus(string(status))
		if err != nil || parsed != status {
			t.Fatalf("ParseStatus(%s) = %s, %v", status, parsed, err)
		}
	}
	if _, err := glif.ParseStatus("approved"); err == nil {
		t.Fatal("expected unknown status error")
	}
}

func TestStatusStateDowngradeAndRecovery(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	done := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 4}}}))
	regressed := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 2}}}))

	var state glif.StatusState
	state.Apply(nil, done, now)
	if state.StatusDowngraded {
		t.Fatal("first save must not flag a downgrade")
	}

	state.Apply(done, regressed, now)
	if !state.StatusDowngraded || state.StatusDowngradedAt == nil || !state.StatusDowngradedAt.Equal(now) {
		t.Fatalf("expected downgrade flagged at %v, got %+v", now, state)
	}

	later := now.Add(time.Hour)
	again := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 1}}}))
	state.Apply(regressed, again, later)
	if !state.StatusDowngradedAt.Equal(now) {
		t.Fatal("downgrade timestamp must not move on later saves")
	}

	state.Apply(again, done, later)
	if state.StatusDowngraded || state.StatusDowngradedAt != nil {
		t.Fatalf("expected downgrade cleared, got %+v", state)
	}
}

func TestStatusStateDowngradeWinsOverUpgrade(t *testing.T) {
	now := time.Now().UTC()
	before := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 4}, {"opsz", 3}}}))
	after := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 3}, {"opsz", 4}}}))
	var state glif.StatusState
	state.Apply(before, after, now)
	if !state.StatusDowngraded {
		t.Fatal("downgrade must win when both directions occur")
	}
}

func TestStatusStateUpgradeWithoutDowngradeIsNoop(t *testing.T) {
	now := time.Now().UTC()
	before := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 3}}}))
	after := glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 4}}}))
	var state glif.StatusState
	state.Apply(before, after, now)
	if state.StatusDowngraded || state.StatusDowngradedAt != nil {
		t.Fatalf("unexpected downgrade state %+v", state)
	}
}

func TestStatusStateTracksCanonicalStatus(t *testing.T) {
	now := time.Now().UTC()
	var state glif.StatusState
	wip := glif.Parse(buildGlif(glifSpec{name: "x"}))
	state.Apply(nil, wip, now)
	if state.Status != glif.StatusWIP || state.StatusChangedAt != nil {
		t.Fatalf("unexpected initial state %+v", state)
	}

	done := glif.Parse(buildGlif(glifSpec{name: "x", status: intPtr(4)}))
	state.Apply(wip, done, now)
	if state.Status != glif.StatusDone || state.PreviousStatus != glif.StatusWIP || state.StatusChangedAt == nil {
		t.Fatalf("unexpected state after promotion %+v", state)
	}
}
