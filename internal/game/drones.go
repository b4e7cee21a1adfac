package game

import (
	"math"
	"sort"
)

// DroneManager owns the drone swarm of one world: the per-base launch
// queues, the drones in transit on the lane graph, the orbit pools around
// contested bases, and the standing waypoints. It is not safe for concurrent
// use; every method is called with the world lock held.
type DroneManager struct {
	world *World

	drones    map[uint32]*Drone
	queues    map[int][]*Drone
	orbits    map[int]*orbitPool
	waypoints map[int]int

	nextID uint32
}

// orbitPool tracks the drones circling an undefended base while its capture
// timer runs. The pool keeps the team that started the capture; latecomers
// join the pool regardless of team and convert with it.
type orbitPool struct {
	team   int
	drones []*Drone
}

func newDroneManager(world *World) *DroneManager {
	return &DroneManager{
		world:     world,
		drones:    make(map[uint32]*Drone),
		queues:    make(map[int][]*Drone),
		orbits:    make(map[int]*orbitPool),
		waypoints: make(map[int]int),
	}
}

// Reset despawns every drone and clears queues, orbits and waypoints, for
// map teardown.
func (m *DroneManager) Reset() {
	m.drones = make(map[uint32]*Drone)
	m.queues = make(map[int][]*Drone)
	m.orbits = make(map[int]*orbitPool)
	m.waypoints = make(map[int]int)
}

// Count returns the number of live (not yet despawned) drones.
func (m *DroneManager) Count() int {
	return len(m.drones)
}

// Snapshot returns all drones ordered by id, so replicated snapshots are
// stable across ticks.
func (m *DroneManager) Snapshot() []Drone {
	out := make([]Drone, 0, len(m.drones))
	for _, d := range m.drones {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsCapturing reports whether a base has an active orbit pool.
func (m *DroneManager) IsCapturing(baseID int) bool {
	_, ok := m.orbits[baseID]
	return ok
}

// CapturingTeam returns the team whose capture is running against a base.
func (m *DroneManager) CapturingTeam(baseID int) (int, bool) {
	pool, ok := m.orbits[baseID]
	if !ok {
		return NeutralTeam, false
	}
	return pool.team, true
}

// OrbitCount returns the number of drones orbiting a base.
func (m *DroneManager) OrbitCount(baseID int) int {
	pool, ok := m.orbits[baseID]
	if !ok {
		return 0
	}
	return len(pool.drones)
}

// orbitedBases returns the bases with active orbit pools, in id order so
// capture resolution is deterministic.
func (m *DroneManager) orbitedBases() []int {
	ids := make([]int, 0, len(m.orbits))
	for id := range m.orbits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Waypoint returns a base's standing waypoint target, if one is set.
func (m *DroneManager) Waypoint(baseID int) (int, bool) {
	target, ok := m.waypoints[baseID]
	return target, ok
}

func (m *DroneManager) setWaypoint(baseID, target int) {
	m.waypoints[baseID] = target
}

func (m *DroneManager) clearWaypoint(baseID int) {
	delete(m.waypoints, baseID)
}

// spawnQueued creates a drone at the head of a route and parks it in the
// origin base's launch queue.
func (m *DroneManager) spawnQueued(team int, route []int) *Drone {
	m.nextID++
	d := &Drone{
		ID:      m.nextID,
		Team:    team,
		Damage:  DroneDamage,
		Defense: DroneDefense,
		Route:   route,
		Phase:   DroneQueued,
	}
	m.drones[d.ID] = d
	m.enqueue(d)
	return d
}

// enqueue parks a drone in its current origin base's launch queue.
func (m *DroneManager) enqueue(d *Drone) {
	origin := d.Origin()
	d.Phase = DroneQueued
	d.Position = m.world.store.Get(origin).Position
	m.queues[origin] = append(m.queues[origin], d)
}

// releaseQueued launches at most one drone per base. Called on the move-tick
// edge; the one-per-period pacing is what spreads a large send into a column
// of drones along the lane.
func (m *DroneManager) releaseQueued() {
	for baseID, queue := range m.queues {
		if len(queue) == 0 {
			delete(m.queues, baseID)
			continue
		}
		d := queue[0]
		m.queues[baseID] = queue[1:]

		d.Phase = DroneInTransit
		d.Position = m.world.store.Get(baseID).Position
		m.world.events.Launch(baseID)
	}
}

// step advances every drone by one simulation tick: transit movement and
// arrivals, lane combat, orbit motion, and decay of killed drones.
func (m *DroneManager) step(dt float64) {
	speed := m.world.settings.DroneSpeed * dt

	for _, d := range m.drones {
		switch {
		case d.Killed:
			m.decay(d, dt)
		case d.Phase == DroneInTransit:
			target := m.world.store.Get(d.Destination()).Position
			d.Position = d.Position.MoveTowards(target, speed)
		}
	}

	m.resolveLaneCombat()

	for _, d := range m.drones {
		if d.Killed || d.Phase != DroneInTransit {
			continue
		}
		target := m.world.store.Get(d.Destination()).Position
		if d.Position.Distance(target) <= DroneArriveEpsilon {
			m.world.resolveArrival(d)
		}
	}

	m.orbitStep()
}

// decay drifts a killed drone outward for the cosmetic destroy window, then
// despawns it.
func (m *DroneManager) decay(d *Drone, dt float64) {
	d.decayTicks--
	if d.decayTicks <= 0 {
		m.despawn(d)
		return
	}
	target := m.world.store.Get(d.Destination()).Position
	dir := target.Sub(d.Position)
	if length := dir.Length(); length > 0 {
		d.Position = d.Position.Add(dir.Scale(m.world.settings.DroneLaunchSpeed * dt / length))
	}
}

// orbitStep moves orbiting drones around their contested base. Purely
// cosmetic; the pool membership is what the capture logic reads.
func (m *DroneManager) orbitStep() {
	angleBase := float64(m.world.tick) / float64(TickRate)
	for baseID, pool := range m.orbits {
		center := m.world.store.Get(baseID).Position
		for i, d := range pool.drones {
			angle := angleBase + float64(i)*2*math.Pi/float64(len(pool.drones))
			d.Position = Vec3{
				X: center.X + DroneOrbitRadius*math.Cos(angle),
				Y: center.Y,
				Z: center.Z + DroneOrbitRadius*math.Sin(angle),
			}
		}
	}
}

// kill marks a drone destroyed and starts its decay window. The team counter
// is debited here, once, no matter how the drone died.
func (m *DroneManager) kill(d *Drone) {
	if d.Killed {
		return
	}
	d.Killed = true
	d.Phase = DroneDestroyed
	d.decayTicks = int(m.world.settings.DroneDestroyTime * float64(TickRate))
	if d.decayTicks < 1 {
		d.decayTicks = 1
	}
	m.world.teams.RemoveDrones(d.Team, 1)
}

// despawn removes a drone entirely. Drones consumed into base stock are
// despawned without a kill, so their team counter carries over to the stock.
func (m *DroneManager) despawn(d *Drone) {
	delete(m.drones, d.ID)
}

// joinOrbit adds a drone to a base's orbit pool, creating the pool (and
// thereby starting the capture) if it is the first arrival.
func (m *DroneManager) joinOrbit(baseID int, d *Drone) (started bool) {
	pool, ok := m.orbits[baseID]
	if !ok {
		pool = &orbitPool{team: d.Team}
		m.orbits[baseID] = pool
		started = true
	}
	d.Phase = DroneOrbiting
	pool.drones = append(pool.drones, d)
	return started
}

// removeOrbiting kills one drone out of a base's orbit pool. Emptying the
// pool aborts the capture.
func (m *DroneManager) removeOrbiting(baseID int) {
	pool, ok := m.orbits[baseID]
	if !ok || len(pool.drones) == 0 {
		return
	}
	victim := pool.drones[len(pool.drones)-1]
	pool.drones = pool.drones[:len(pool.drones)-1]
	m.kill(victim)

	if len(pool.drones) == 0 {
		delete(m.orbits, baseID)
		m.world.abortCapture(baseID)
	}
}

// convertOrbit dissolves a base's orbit pool into base stock after a
// completed capture and returns the pool size. The drones are despawned
// without kills so the team counters simply shift from swarm to stock.
func (m *DroneManager) convertOrbit(baseID int) int {
	pool, ok := m.orbits[baseID]
	if !ok {
		return 0
	}
	for _, d := range pool.drones {
		m.despawn(d)
	}
	delete(m.orbits, baseID)
	return len(pool.drones)
}

// dropOrbit discards a base's orbit pool, killing its drones. Used when a
// capture is repelled.
func (m *DroneManager) dropOrbit(baseID int) {
	pool, ok := m.orbits[baseID]
	if !ok {
		return
	}
	drones := pool.drones
	pool.drones = nil
	delete(m.orbits, baseID)
	for _, d := range drones {
		m.kill(d)
	}
}

// resolveLaneCombat runs the pairwise exchange between opposing drones that
// meet on the same lane. Both sides apply their damage simultaneously from
// the pre-exchange state, so the outcome does not depend on iteration order.
// A drone killed in one exchange takes no further part this tick.
func (m *DroneManager) resolveLaneCombat() {
	lanes := make(map[[2]int][]*Drone)
	for _, d := range m.drones {
		if d.Killed || d.Phase != DroneInTransit {
			continue
		}
		a, b := d.Origin(), d.Destination()
		if a > b {
			a, b = b, a
		}
		lanes[[2]int{a, b}] = append(lanes[[2]int{a, b}], d)
	}

	for _, drones := range lanes {
		if len(drones) < 2 {
			continue
		}
		sort.Slice(drones, func(i, j int) bool { return drones[i].ID < drones[j].ID })
		for i := 0; i < len(drones); i++ {
			for j := i + 1; j < len(drones); j++ {
				di, dj := drones[i], drones[j]
				if di.Killed {
					break
				}
				if dj.Killed || di.Team == dj.Team {
					continue
				}
				if di.Position.Distance(dj.Position) > DroneCollisionRadius {
					continue
				}
				di.Defense -= dj.Damage
				dj.Defense -= di.Damage
				if di.Defense <= 0 {
					m.kill(di)
				}
				if dj.Defense <= 0 {
					m.kill(dj)
				}
			}
		}
	}
}
