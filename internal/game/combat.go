package game

import "log"

// resolveArrival handles a drone reaching the base it was heading for. A
// friendly intermediate base forwards the drone into its launch queue; every
// other case resolves against the base: reinforcement trades, stock combat,
// or joining the orbit pool of an undefended base.
func (w *World) resolveArrival(d *Drone) {
	dest := d.Destination()
	base := w.store.Get(dest)

	if base.Team == d.Team {
		w.resolveFriendlyArrival(d, base)
		return
	}
	w.resolveCombatArrival(d, base)
}

func (w *World) resolveFriendlyArrival(d *Drone, base BaseData) {
	if w.drones.IsCapturing(base.ID) {
		// Defender reinforcement: the arriving drone trades itself for one
		// orbiting attacker instead of joining the stock.
		w.drones.removeOrbiting(base.ID)
		w.drones.kill(d)
		w.events.Attack(base.ID)
		return
	}

	if d.Destination() != d.FinalDestination() {
		d.LegIndex++
		w.drones.enqueue(d)
		return
	}

	// Home at last: the drone folds into the base stock. No team counter
	// change; the drone stays alive as stock.
	base.ProduceDrones(1)
	w.store.Set(base.ID, base)
	w.drones.despawn(d)
}

func (w *World) resolveCombatArrival(d *Drone, base BaseData) {
	if base.DroneCount <= 0 {
		if w.drones.joinOrbit(base.ID, d) {
			w.startCapture(base.ID, d.Team)
		}
		return
	}

	damage := d.Damage - base.Defense
	if damage < 0 {
		damage = 0
	}
	removed := damage
	if removed > base.DroneCount {
		removed = base.DroneCount
	}

	base.RemoveDrones(damage)
	w.teams.RemoveDrones(base.Team, removed)
	w.drones.kill(d)
	w.events.Attack(base.ID)

	if base.DroneCount <= 0 && base.Team != NeutralTeam {
		// Stock wiped out: the base drops to neutral. Actually flipping it
		// still takes a full capture by whoever shows up next.
		oldTeam := base.Team
		base.Team = NeutralTeam
		w.teams.ChangeBaseTeam(oldTeam, NeutralTeam)
		w.drones.clearWaypoint(base.ID)
		w.events.Captured(base.ID, NeutralTeam, oldTeam)
		log.Printf("[Combat] base %d neutralized (was team %d)", base.ID, oldTeam)
	}

	w.store.Set(base.ID, base)
}

// startCapture arms a base's capture timer for an attacking team.
func (w *World) startCapture(baseID, team int) {
	base := w.store.Get(baseID)
	if base.CaptureTime != 0 {
		return
	}
	base.CaptureTime = w.settings.CaptureTime
	w.store.Set(baseID, base)
	log.Printf("[Combat] team %d started capturing base %d", team, baseID)
}

// abortCapture resets a base's capture timer after its orbit pool was wiped.
func (w *World) abortCapture(baseID int) {
	base := w.store.Get(baseID)
	if base.CaptureTime == 0 {
		return
	}
	base.CaptureTime = 0
	w.store.Set(baseID, base)
	log.Printf("[Combat] capture of base %d repelled", baseID)
}

// resolveCaptures settles every orbit pool whose capture timer has expired.
// Called on the second edge, after the base timers have ticked down: a
// completed capture flips the base to the pool's team and converts the pool
// into stock; a base that somehow rebuilt stock repels the pool instead.
func (w *World) resolveCaptures() {
	for _, baseID := range w.drones.orbitedBases() {
		base := w.store.Get(baseID)
		if base.CaptureTime > 0 {
			continue
		}

		team, ok := w.drones.CapturingTeam(baseID)
		if !ok {
			continue
		}

		if base.DroneCount > 0 || base.Team == team {
			w.drones.dropOrbit(baseID)
			w.abortCapture(baseID)
			continue
		}

		poolSize := w.drones.convertOrbit(baseID)
		oldTeam := base.Team
		base.Team = team
		base.ProduceDrones(poolSize)
		base.CaptureTime = 0
		w.store.Set(baseID, base)
		// The previous owner's standing order does not survive the flip.
		w.drones.clearWaypoint(baseID)
		w.teams.ChangeBaseTeam(oldTeam, team)
		w.events.Captured(baseID, team, oldTeam)
		log.Printf("[Combat] team %d captured base %d with %d orbiting drones", team, baseID, poolSize)
	}
}

// sendDronesLocked orders drones from one base to another along the shortest
// route. The count is clamped to the base's stock, except that an empty base
// still launches a single drone; routing failures drop the order.
func (w *World) sendDronesLocked(from, to, count int) {
	if !w.authority || count <= 0 || from == to {
		return
	}

	base := w.store.Get(from)
	if base.Team == NeutralTeam {
		return
	}

	if base.DroneCount < count {
		count = base.DroneCount
		if count == 0 {
			// An empty base still answers a waypoint order with one drone.
			count = 1
		}
	}

	route := w.pathfinder.Path(from, to)
	if route == nil {
		log.Printf("[World] no route from base %d to base %d, dropping send", from, to)
		return
	}

	for i := 0; i < count; i++ {
		w.drones.spawnQueued(base.Team, route)
	}

	fromStock := count
	if fromStock > base.DroneCount {
		fromStock = base.DroneCount
	}
	if count > fromStock {
		// The freebie drone was never stock, so it is new to the team.
		w.teams.AddDrones(base.Team, count-fromStock)
	}
	base.RemoveDrones(count)
	w.store.Set(from, base)

	target := w.store.Get(to)
	w.events.Move(to, target.Team != base.Team)
}
