package game

import "testing"

func TestChangeBaseTeamHandlesNeutral(t *testing.T) {
	stats := NewTeamStats(true)
	stats.AddBase(0)

	stats.ChangeBaseTeam(0, NeutralTeam)
	if got := stats.BaseCount(0); got != 0 {
		t.Errorf("team 0 bases = %d after neutralization, want 0", got)
	}

	stats.ChangeBaseTeam(NeutralTeam, 1)
	if got := stats.BaseCount(1); got != 1 {
		t.Errorf("team 1 bases = %d after capture from neutral, want 1", got)
	}
	if got := stats.TotalBaseCount(); got != 1 {
		t.Errorf("total bases = %d, want 1", got)
	}
}

func TestTeamCountersAuthorityGated(t *testing.T) {
	stats := NewTeamStats(false)
	stats.AddBase(0)
	stats.AddDrones(0, 5)

	if stats.BaseCount(0) != 0 || stats.DroneCount(0) != 0 {
		t.Fatal("non-authority mutation landed on team counters")
	}
}

func TestTeamCountersIgnoreOutOfRange(t *testing.T) {
	stats := NewTeamStats(true)
	stats.AddDrones(-1, 5)
	stats.AddDrones(MaxTeams, 5)
	if got := stats.TotalDroneCount(); got != 0 {
		t.Fatalf("total drones = %d after out-of-range writes, want 0", got)
	}
}

func TestProductionRate(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 0, 1}, []int{10, 10, 10}))

	// Two level-0 bases at 2 seconds per drone each.
	if got := w.teams.ProductionRate(0, w.store, w.settings); got != 1.0 {
		t.Errorf("team 0 production = %v drones/s, want 1.0", got)
	}
	if got := w.teams.ProductionRate(1, w.store, w.settings); got != 0.5 {
		t.Errorf("team 1 production = %v drones/s, want 0.5", got)
	}
}
