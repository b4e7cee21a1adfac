package game

import (
	"fmt"
	"log"
)

// BaseStore owns the authoritative fixed-capacity base array. Records are
// read out by value, mutated, and written back; only the authority may
// write. Mutations mark the store dirty, and Commit fires the change
// listener once with a full copy-on-read snapshot — observers never see a
// partially applied tick.
type BaseStore struct {
	data      [MaxBases]BaseData
	count     int
	authority bool
	dirty     bool
	listener  func([]BaseData)
}

// NewBaseStore creates an empty store. authority controls whether writes
// are accepted; mirrors construct with false and only apply snapshots.
func NewBaseStore(authority bool) *BaseStore {
	return &BaseStore{authority: authority}
}

// SetChangeListener registers the full-broadcast refresh callback. The
// listener must tolerate redundant calls.
func (s *BaseStore) SetChangeListener(fn func([]BaseData)) {
	s.listener = fn
}

// Populate installs the base records for a starmap. Ids are assigned from
// node order and must be dense from zero; a mismatch indicates corrupted
// generation and fails the whole populate.
func (s *BaseStore) Populate(starmap *Starmap) error {
	if len(starmap.Nodes) > MaxBases {
		return fmt.Errorf("starmap has %d nodes, store capacity is %d", len(starmap.Nodes), MaxBases)
	}

	s.data = [MaxBases]BaseData{}
	s.count = len(starmap.Nodes)

	for i, node := range starmap.Nodes {
		record := BaseData{
			ID:         i,
			Team:       node.StartingOwner,
			DroneCount: node.StartingDroneCount,
			Defense:    BaseDefense,
			Position:   node.Position,
		}
		for slot := range record.Connected {
			record.Connected[slot] = -1
		}
		for slot, idx := range node.ConnectedIndices {
			record.Connected[slot] = idx
		}
		s.data[i] = record
	}

	s.dirty = true
	return nil
}

// Reset clears all base records, for map teardown.
func (s *BaseStore) Reset() {
	s.data = [MaxBases]BaseData{}
	s.count = 0
	s.dirty = true
}

// Count returns the number of live base records.
func (s *BaseStore) Count() int {
	return s.count
}

// Get returns a copy of a base record. An id that does not match the stored
// record's own id means the replicated array is corrupted; that is reported
// loudly and a zero record returned so callers cannot act on garbage.
func (s *BaseStore) Get(id int) BaseData {
	if id < 0 || id >= s.count {
		log.Printf("[BaseStore] base id %d out of range (count %d)", id, s.count)
		return BaseData{}
	}
	if s.data[id].ID != id {
		log.Printf("[BaseStore] id mismatch at index %d: stored record has id %d", id, s.data[id].ID)
		return BaseData{}
	}
	return s.data[id]
}

// Set writes a record back into the array. Non-authoritative writes are
// silently dropped.
func (s *BaseStore) Set(id int, data BaseData) {
	if !s.authority {
		return
	}
	if id < 0 || id >= s.count {
		log.Printf("[BaseStore] refusing write to out-of-range base id %d", id)
		return
	}
	s.data[id] = data
	s.dirty = true
}

// Snapshot returns a copy of all live base records.
func (s *BaseStore) Snapshot() []BaseData {
	out := make([]BaseData, s.count)
	copy(out, s.data[:s.count])
	return out
}

// ApplySnapshot overwrites the local mirror with a replicated snapshot.
// Only non-authoritative stores accept it; the authority's array is the
// source of truth.
func (s *BaseStore) ApplySnapshot(bases []BaseData) {
	if s.authority {
		return
	}
	if len(bases) > MaxBases {
		bases = bases[:MaxBases]
	}
	s.data = [MaxBases]BaseData{}
	copy(s.data[:], bases)
	s.count = len(bases)
	s.dirty = true
}

// Commit fires the change listener once if anything was written since the
// last commit. Calling it with no pending writes is harmless.
func (s *BaseStore) Commit() {
	if !s.dirty {
		return
	}
	s.dirty = false
	if s.listener != nil {
		s.listener(s.Snapshot())
	}
}

// Dirty reports whether uncommitted writes are pending.
func (s *BaseStore) Dirty() bool {
	return s.dirty
}

// CanUpgrade reports whether a base satisfies the upgrade preconditions:
// enough drones to pay the cost, below the maximum level, and no upgrade
// already running. Checked both by requesting clients (early exit) and by
// the authority (the actual gate).
func (s *BaseStore) CanUpgrade(id int, settings *GameSettings) bool {
	base := s.Get(id)
	return base.DroneCount >= settings.Level(base.UpgradeLevel).UpgradeCost &&
		base.UpgradeLevel < settings.MaxUpgradeLevel() &&
		base.UpgradeTime <= 0
}

// CanCapture reports whether a base is undefended and therefore capturable.
func (s *BaseStore) CanCapture(id int) bool {
	return s.Get(id).DroneCount <= 0
}

// tickBases applies the per-second authoritative update to every base, in
// the fixed order the rest of the simulation depends on: upgrade progress,
// capture progress, then drone production. One change notification covers
// the whole batch.
func (w *World) tickBases() {
	if !w.authority {
		return
	}

	for i := 0; i < w.store.Count(); i++ {
		base := w.store.Get(i)
		before := base.UpgradeLevel
		base = tickBaseProgress(base)
		if base.UpgradeLevel > before {
			w.events.Upgraded(base.ID, base.Team)
		}
		base = w.tickBaseProduction(base)
		w.store.Set(i, base)
	}
}

// tickBaseProgress advances the upgrade and capture timers. The timers
// decrement to exactly zero; negative values from double decrements are
// clamped rather than wrapped into a second trigger.
func tickBaseProgress(base BaseData) BaseData {
	if base.UpgradeTime != 0 {
		base.UpgradeTime--
		if base.UpgradeTime == 0 {
			base.UpgradeLevel++
		}
		if base.UpgradeTime < 0 {
			base.UpgradeTime = 0
		}
	}

	if base.CaptureTime != 0 {
		base.CaptureTime--
		if base.CaptureTime < 0 {
			base.CaptureTime = 0
		}
	}

	return base
}

// tickBaseProduction runs one second of drone production for a base. An
// upgrade in progress blocks production entirely; a capture in progress or
// neutral ownership pauses it; a waypoint diverts the produced drone into an
// immediate send instead of stock.
func (w *World) tickBaseProduction(base BaseData) BaseData {
	if base.UpgradeTime != 0 {
		return base
	}

	level := w.settings.Level(base.UpgradeLevel)
	if base.DroneCount == level.MaxDrones {
		return base
	}
	if base.Team == NeutralTeam || level.DroneBuildTime <= 0 {
		return base
	}
	if w.secondTicker.SecondsElapsed%level.DroneBuildTime != 0 {
		return base
	}

	if w.drones.IsCapturing(base.ID) {
		return base
	}

	if waypoint, ok := w.drones.Waypoint(base.ID); ok {
		// A standing waypoint converts production into an immediate send.
		// The send re-reads the record from the store, so the timer progress
		// on the local copy has to land there first.
		w.store.Set(base.ID, base)
		w.sendDronesLocked(base.ID, waypoint, 1)
		return w.store.Get(base.ID)
	}

	if base.DroneCount < level.MaxDrones {
		base.ProduceDrones(1)
		w.teams.AddDrones(base.Team, 1)
	} else if base.DroneCount > level.MaxDrones {
		// The cap can drop below the stock when settings change; decay one
		// drone per production tick until the stock converges.
		base.RemoveDrones(1)
		w.teams.RemoveDrones(base.Team, 1)
		w.events.PopulationLimit(base.ID, true)
	}

	return base
}
