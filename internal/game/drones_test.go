package game

import "testing"

func countPhase(w *World, phase DronePhase) int {
	count := 0
	for _, d := range w.drones.drones {
		if d.Phase == phase && !d.Killed {
			count++
		}
	}
	return count
}

func TestSendDronesClampsToStock(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{10, 10}))

	w.sendDronesLocked(0, 1, 15)

	if got := w.drones.Count(); got != 10 {
		t.Errorf("spawned %d drones, want clamped to 10", got)
	}
	if got := w.store.Get(0).DroneCount; got != 0 {
		t.Errorf("stock = %d after send, want 0", got)
	}
	if got := w.teams.DroneCount(0); got != 10 {
		t.Errorf("team 0 drones = %d, want 10", got)
	}
}

func TestSendFromEmptyBaseLaunchesOne(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{0, 10}))

	w.sendDronesLocked(0, 1, 5)

	if got := w.drones.Count(); got != 1 {
		t.Fatalf("spawned %d drones from an empty base, want 1", got)
	}
	if got := w.teams.DroneCount(0); got != 1 {
		t.Fatalf("team 0 drones = %d, want 1 (the freebie is new)", got)
	}
}

func TestSendDronesWithoutRouteIsDropped(t *testing.T) {
	// Two disconnected lane pairs.
	starmap := &Starmap{Nodes: []MapNode{
		{Position: Vec3{Z: 0}, ConnectedIndices: []int{1}, StartingOwner: 0, StartingDroneCount: 10},
		{Position: Vec3{Z: 2}, ConnectedIndices: []int{0}},
		{Position: Vec3{Z: 10}, ConnectedIndices: []int{3}, StartingOwner: 1, StartingDroneCount: 10},
		{Position: Vec3{Z: 12}, ConnectedIndices: []int{2}},
	}}
	w := newTestWorld(t, starmap)

	w.sendDronesLocked(0, 3, 5)

	if got := w.drones.Count(); got != 0 {
		t.Errorf("spawned %d drones with no route, want 0", got)
	}
	if got := w.store.Get(0).DroneCount; got != 10 {
		t.Errorf("stock = %d, want untouched 10", got)
	}
}

func TestSendRejectedForNeutralAndSelf(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, -1, 1}, []int{10, 5, 10}))

	w.sendDronesLocked(1, 0, 3) // neutral base cannot send
	w.sendDronesLocked(0, 0, 3) // self send is a no-op

	if got := w.drones.Count(); got != 0 {
		t.Fatalf("spawned %d drones, want 0", got)
	}
}

func TestQueueReleasesOnePerMoveInterval(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{10, 10}))
	disableProduction(w)

	w.sendDronesLocked(0, 1, 3)
	if got := countPhase(w, DroneQueued); got != 3 {
		t.Fatalf("queued = %d right after send, want 3", got)
	}

	stepTicks(w, TickRate+2)
	if got := countPhase(w, DroneInTransit); got != 1 {
		t.Fatalf("in transit = %d after one move edge, want 1", got)
	}

	stepTicks(w, TickRate)
	if got := countPhase(w, DroneInTransit); got != 2 {
		t.Fatalf("in transit = %d after two move edges, want 2", got)
	}
	if got := countPhase(w, DroneQueued); got != 1 {
		t.Fatalf("queued = %d after two move edges, want 1", got)
	}
}

func TestFriendlyArrivalJoinsStock(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 0}, []int{5, 0}))
	disableProduction(w)
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(0, 1, 2)
	stepSeconds(w, 4)

	if got := w.drones.Count(); got != 0 {
		t.Errorf("drones alive = %d after arrivals, want 0", got)
	}
	if got := w.store.Get(1).DroneCount; got != 2 {
		t.Errorf("destination stock = %d, want 2", got)
	}
	if got := w.teams.DroneCount(0); got != 5 {
		t.Errorf("team 0 drones = %d, want 5 (transfer loses nothing)", got)
	}
}

func TestIntermediateFriendlyBaseForwards(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 0, 0}, []int{5, 0, 0}))
	disableProduction(w)
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(0, 2, 1)
	stepSeconds(w, 4)

	if got := w.store.Get(2).DroneCount; got != 1 {
		t.Errorf("final destination stock = %d, want 1", got)
	}
	if got := w.store.Get(1).DroneCount; got != 0 {
		t.Errorf("intermediate stock = %d, want 0 (drone passes through)", got)
	}
}

func TestCombatArrivalNeutralizesBase(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 3}))
	disableProduction(w)
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(0, 1, 3)
	stepSeconds(w, 6)

	base := w.store.Get(1)
	if base.DroneCount != 0 {
		t.Errorf("defender stock = %d, want 0", base.DroneCount)
	}
	if base.Team != NeutralTeam {
		t.Errorf("base team = %d after stock wiped, want neutral", base.Team)
	}
	if got := w.teams.DroneCount(1); got != 0 {
		t.Errorf("team 1 drones = %d, want 0", got)
	}
	if got := w.teams.DroneCount(0); got != 2 {
		t.Errorf("team 0 drones = %d, want 2 (three attackers died)", got)
	}
	if got := w.teams.BaseCount(1); got != 0 {
		t.Errorf("team 1 bases = %d, want 0", got)
	}
	if got := w.drones.Count(); got != 0 {
		t.Errorf("drones alive = %d after decay, want 0", got)
	}
}

func TestCaptureFlipConvertsOrbitToStock(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 0}))
	disableProduction(w)
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(0, 1, 2)
	stepSeconds(w, 3)

	if !w.drones.IsCapturing(1) {
		t.Fatal("expected an active capture on the undefended base")
	}
	if got := w.drones.OrbitCount(1); got != 2 {
		t.Fatalf("orbit pool = %d, want 2", got)
	}
	if got := w.store.Get(1).CaptureTime; got <= 0 {
		t.Fatalf("CaptureTime = %d during capture, want > 0", got)
	}

	stepSeconds(w, 5)

	base := w.store.Get(1)
	if base.Team != 0 {
		t.Fatalf("base team = %d after capture, want 0", base.Team)
	}
	if base.DroneCount != 2 {
		t.Fatalf("stock = %d after capture, want the 2 orbiting drones", base.DroneCount)
	}
	if base.CaptureTime != 0 {
		t.Errorf("CaptureTime = %d after capture, want 0", base.CaptureTime)
	}
	if w.drones.IsCapturing(1) {
		t.Error("orbit pool still active after the flip")
	}
	if got := w.drones.Count(); got != 0 {
		t.Errorf("drones alive = %d, want 0 (pool became stock)", got)
	}
	if got := w.teams.DroneCount(0); got != 5 {
		t.Errorf("team 0 drones = %d, want 5 (capture loses nothing)", got)
	}
	if got := w.teams.BaseCount(0); got != 2 {
		t.Errorf("team 0 bases = %d, want 2", got)
	}
	if got := w.teams.BaseCount(1); got != 0 {
		t.Errorf("team 1 bases = %d, want 0", got)
	}
}

func TestReinforcementRepelsCapture(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 0, 1}, []int{10, 0, 5}))
	disableProduction(w)
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(2, 1, 1)
	stepSeconds(w, 2)

	if !w.drones.IsCapturing(1) {
		t.Fatal("expected team 1 to start capturing the empty base")
	}

	w.sendDronesLocked(0, 1, 1)
	stepSeconds(w, 2)

	if w.drones.IsCapturing(1) {
		t.Error("capture still active after the reinforcement traded")
	}
	base := w.store.Get(1)
	if base.Team != 0 {
		t.Errorf("base team = %d, want still 0", base.Team)
	}
	if base.CaptureTime != 0 {
		t.Errorf("CaptureTime = %d after repelled capture, want 0", base.CaptureTime)
	}
	if got := w.teams.DroneCount(0); got != 9 {
		t.Errorf("team 0 drones = %d, want 9 (reinforcement traded)", got)
	}
	if got := w.teams.DroneCount(1); got != 4 {
		t.Errorf("team 1 drones = %d, want 4 (orbiter destroyed)", got)
	}
}

func TestLaneCombatKillsOpposingPair(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 5}))
	disableProduction(w)

	w.sendDronesLocked(0, 1, 1)
	w.sendDronesLocked(1, 0, 1)
	stepSeconds(w, 4)

	if got := w.drones.Count(); got != 0 {
		t.Errorf("drones alive = %d after head-on meeting, want 0", got)
	}
	if got := w.teams.DroneCount(0); got != 4 {
		t.Errorf("team 0 drones = %d, want 4", got)
	}
	if got := w.teams.DroneCount(1); got != 4 {
		t.Errorf("team 1 drones = %d, want 4", got)
	}
	if got := w.store.Get(0).DroneCount; got != 4 {
		t.Errorf("base 0 stock = %d, want 4 (no arrival happened)", got)
	}
	if got := w.store.Get(1).DroneCount; got != 4 {
		t.Errorf("base 1 stock = %d, want 4 (no arrival happened)", got)
	}
}

func TestLaneCombatExchangeIsPairwise(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 5}))

	a := w.drones.spawnQueued(0, []int{0, 1})
	b := w.drones.spawnQueued(1, []int{1, 0})
	c := w.drones.spawnQueued(1, []int{1, 0})
	for _, d := range []*Drone{a, b, c} {
		d.Phase = DroneInTransit
		d.Position = Vec3{Z: 1}
	}

	w.drones.resolveLaneCombat()

	if !a.Killed {
		t.Error("drone a survived an opposing exchange")
	}
	killed := 0
	if b.Killed {
		killed++
	}
	if c.Killed {
		killed++
	}
	// a carries one point of damage, so it trades with exactly one opponent.
	if killed != 1 {
		t.Errorf("%d opposing drones killed, want exactly 1", killed)
	}
}

func TestLaneCombatIgnoresSameTeam(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 5}))

	a := w.drones.spawnQueued(0, []int{0, 1})
	b := w.drones.spawnQueued(0, []int{0, 1})
	a.Phase, b.Phase = DroneInTransit, DroneInTransit
	a.Position, b.Position = Vec3{Z: 1}, Vec3{Z: 1}

	w.drones.resolveLaneCombat()

	if a.Killed || b.Killed {
		t.Fatal("same-team drones exchanged damage")
	}
}

func TestKilledDroneDecaysAndDespawns(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 5}))
	disableProduction(w)

	d := w.drones.spawnQueued(0, []int{0, 1})
	d.Phase = DroneInTransit
	w.drones.kill(d)
	w.drones.kill(d) // double kill must not double-debit

	if got := w.teams.DroneCount(0); got != 4 {
		t.Fatalf("team 0 drones = %d after kill, want 4", got)
	}

	decay := int(w.settings.DroneDestroyTime * float64(TickRate))
	stepTicks(w, decay+2)

	if got := w.drones.Count(); got != 0 {
		t.Fatalf("drones alive = %d after decay window, want 0", got)
	}
}

func TestWaypointTwoPressProtocol(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{10, 10}))
	client := &Client{ID: 1, Team: 0, Send: make(chan []byte, 16)}
	w.clients[client.ID] = client

	// Enemy base cannot be armed as an origin.
	w.handleWaypoint(client, CommandMsg{BaseID: 1})
	if w.waypointArm != -1 {
		t.Fatal("enemy base was armed as a waypoint origin")
	}

	// First press arms, second press sets.
	w.handleWaypoint(client, CommandMsg{BaseID: 0})
	if w.waypointArm != 0 {
		t.Fatal("own base was not armed")
	}
	w.handleWaypoint(client, CommandMsg{BaseID: 1})
	if target, ok := w.drones.Waypoint(0); !ok || target != 1 {
		t.Fatalf("waypoint = (%d,%v), want (1,true)", target, ok)
	}
	if w.waypointArm != -1 {
		t.Fatal("arm not cleared after setting")
	}

	// Pressing the armed origin again cancels the arm without touching the
	// standing waypoint.
	w.handleWaypoint(client, CommandMsg{BaseID: 0})
	w.handleWaypoint(client, CommandMsg{BaseID: 0})
	if target, ok := w.drones.Waypoint(0); !ok || target != 1 {
		t.Fatalf("waypoint = (%d,%v) after cancel, want (1,true)", target, ok)
	}
	if w.waypointArm != -1 {
		t.Fatal("arm not cleared after cancel")
	}
}

func TestWaypointClearedWhenBaseChangesHands(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{10, 1}))
	disableProduction(w)
	w.drones.setWaypoint(1, 0)

	// A single enemy drone wipes the one-drone stock and neutralizes base 1.
	d := w.drones.spawnQueued(0, []int{0, 1})
	w.resolveCombatArrival(d, w.store.Get(1))

	if got := w.store.Get(1).Team; got != NeutralTeam {
		t.Fatalf("base 1 team = %d after losing its stock, want neutral", got)
	}
	if _, ok := w.drones.Waypoint(1); ok {
		t.Fatal("standing waypoint survived the ownership change")
	}
}

func TestBaseDefenseAbsorbsAttack(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{10, 3}))
	disableProduction(w)

	base := w.store.Get(1)
	base.Defense = 1
	w.store.Set(1, base)

	d := w.drones.spawnQueued(0, []int{0, 1})
	w.resolveCombatArrival(d, w.store.Get(1))

	if got := w.store.Get(1).DroneCount; got != 3 {
		t.Errorf("defended stock = %d, want 3 (damage fully absorbed)", got)
	}
	if !d.Killed {
		t.Error("attacking drone did not die on the defended base")
	}
}

func TestWaypointDivertsProduction(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 0}, []int{0, 0}))
	w.drones.setWaypoint(0, 1)

	stepSeconds(w, 2) // one build edge

	if got := w.drones.Count(); got != 1 {
		t.Fatalf("drones = %d after diverted production, want 1", got)
	}
	if got := w.store.Get(0).DroneCount; got != 0 {
		t.Errorf("origin stock = %d, want 0 (production diverted)", got)
	}
	if got := w.store.Get(1).DroneCount; got != 1 {
		t.Errorf("other base stock = %d, want 1 (normal production)", got)
	}
}

func TestProductionPausedWhileCaptured(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{5, 0}))
	w.settings.DroneSpeed = 50

	w.sendDronesLocked(0, 1, 1)
	stepSeconds(w, 3)

	if !w.drones.IsCapturing(1) {
		t.Fatal("expected an active capture")
	}
	// Base 0 kept producing, base 1 must not while under capture.
	if got := w.store.Get(1).DroneCount; got != 0 {
		t.Fatalf("captured base produced %d drones", got)
	}
}

func TestBotCommanderAttacks(t *testing.T) {
	w := newTestWorld(t, lineStarmap([]int{0, 1}, []int{0, 10}))
	disableProduction(w)
	w.EnableBot(1)

	stepSeconds(w, 2)

	if got := w.drones.Count(); got != 5 {
		t.Fatalf("bot launched %d drones, want half its stock (5)", got)
	}
	if got := w.store.Get(1).DroneCount; got != 5 {
		t.Fatalf("bot base stock = %d, want 5", got)
	}
	for _, d := range w.drones.drones {
		if d.Team != 1 {
			t.Fatalf("bot drone on team %d, want 1", d.Team)
		}
	}
}
