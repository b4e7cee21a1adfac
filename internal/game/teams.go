package game

// TeamStats maintains the per-team aggregate counters. Teams are not
// simulated entities; the counters are updated incrementally as bases and
// drones change hands, and only by the authority.
type TeamStats struct {
	data      [MaxTeams]TeamData
	authority bool
}

// NewTeamStats creates empty team counters.
func NewTeamStats(authority bool) *TeamStats {
	return &TeamStats{authority: authority}
}

// BaseCount returns the number of bases a team owns.
func (t *TeamStats) BaseCount(team int) int {
	if team < 0 || team >= MaxTeams {
		return 0
	}
	return t.data[team].Bases
}

// DroneCount returns the number of live drones a team owns.
func (t *TeamStats) DroneCount(team int) int {
	if team < 0 || team >= MaxTeams {
		return 0
	}
	return t.data[team].Drones
}

// TotalBaseCount sums owned bases across all teams.
func (t *TeamStats) TotalBaseCount() int {
	count := 0
	for _, data := range t.data {
		count += data.Bases
	}
	return count
}

// TotalDroneCount sums live drones across all teams.
func (t *TeamStats) TotalDroneCount() int {
	count := 0
	for _, data := range t.data {
		count += data.Drones
	}
	return count
}

// AddBase credits a newly owned base to a team.
func (t *TeamStats) AddBase(team int) {
	if !t.authority || team < 0 || team >= MaxTeams {
		return
	}
	t.data[team].Bases++
}

// ChangeBaseTeam moves one base between team counters. Neutral on either
// side only touches the non-neutral counter.
func (t *TeamStats) ChangeBaseTeam(currentTeam, newTeam int) {
	if !t.authority {
		return
	}
	if currentTeam >= 0 && currentTeam < MaxTeams {
		t.data[currentTeam].Bases--
	}
	if newTeam >= 0 && newTeam < MaxTeams {
		t.data[newTeam].Bases++
	}
}

// AddDrones credits produced or captured drones to a team.
func (t *TeamStats) AddDrones(team, amount int) {
	if !t.authority || team < 0 || team >= MaxTeams {
		return
	}
	t.data[team].Drones += amount
}

// RemoveDrones debits destroyed or consumed drones from a team.
func (t *TeamStats) RemoveDrones(team, amount int) {
	if !t.authority || team < 0 || team >= MaxTeams {
		return
	}
	t.data[team].Drones -= amount
}

// Snapshot returns a copy of all team counters.
func (t *TeamStats) Snapshot() []TeamData {
	out := make([]TeamData, MaxTeams)
	copy(out, t.data[:])
	return out
}

// ProductionRate returns a team's aggregate drone production in drones per
// second, summed over its owned bases.
func (t *TeamStats) ProductionRate(team int, store *BaseStore, settings *GameSettings) float64 {
	rate := 0.0
	for i := 0; i < store.Count(); i++ {
		base := store.Get(i)
		if base.Team != team {
			continue
		}
		buildTime := settings.Level(base.UpgradeLevel).DroneBuildTime
		if buildTime <= 0 {
			continue
		}
		rate += 1.0 / float64(buildTime)
	}
	return rate
}
