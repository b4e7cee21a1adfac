package game

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// NewWorld creates a game world. Only the authoritative world simulates;
// non-authoritative worlds mirror replicated snapshots for inspection.
func NewWorld(authority bool, settings *GameSettings, events EventSink) *World {
	if settings == nil {
		settings = DefaultGameSettings()
	}
	if events == nil {
		events = LogSink{}
	}
	world := &World{
		authority:   authority,
		settings:    settings.Clone(),
		store:       NewBaseStore(authority),
		teams:       NewTeamStats(authority),
		events:      events,
		clients:     make(map[uint32]*Client),
		bots:        make(map[int]*Bot),
		nextID:      1,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		waypointArm: -1,
	}
	world.drones = newDroneManager(world)
	return world
}

// LoadStarmap installs a starmap as the active battlefield. The previous
// map, drones and team counters are torn down first; a map that fails
// validation leaves the world untouched.
func (w *World) LoadStarmap(starmap *Starmap) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadStarmapLocked(starmap)
}

func (w *World) loadStarmapLocked(starmap *Starmap) error {
	if err := starmap.Validate(); err != nil {
		return fmt.Errorf("rejecting starmap: %w", err)
	}
	if err := w.store.Populate(starmap); err != nil {
		return err
	}

	w.starmap = starmap
	w.pathfinder = NewPathfinder(starmap)
	w.drones.Reset()
	w.teams = NewTeamStats(w.authority)
	w.waypointArm = -1

	for _, node := range starmap.Nodes {
		if node.StartingOwner == NeutralTeam {
			continue
		}
		w.teams.AddBase(node.StartingOwner)
		w.teams.AddDrones(node.StartingOwner, node.StartingDroneCount)
	}

	w.secondTicker.Initialize(w.tick, TickRate)
	w.moveTicker.Initialize(w.tick)

	w.broadcastMap()
	log.Printf("Starmap loaded: %d bases", len(starmap.Nodes))
	return nil
}

// GenerateAndLoad rolls a fresh starmap for a size preset and installs it.
// Generation failure leaves the current map in place.
func (w *World) GenerateAndLoad(size MapSize) error {
	settings, ok := RandomizedStarmapPresets[size]
	if !ok {
		return fmt.Errorf("unknown map size %q", size)
	}
	starmap, err := GenerateStarmap(settings, w.rng)
	if err != nil {
		return err
	}
	return w.LoadStarmap(starmap)
}

// Start begins the game loop
func (w *World) Start() {
	w.mu.Lock()
	if w.running || !w.authority {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	log.Println("Game world started")
	for w.isRunning() {
		<-ticker.C
		w.update()
	}
}

// Stop stops the game world
func (w *World) Stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *World) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// update runs one simulation tick: timers first, then the per-second base
// update and capture settlement, queue releases on the move edge, drone
// movement every tick, and finally one replication commit for the batch.
func (w *World) update() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.starmap == nil {
		return
	}

	w.tick++
	w.secondTicker.Tick(w.tick)
	w.moveTicker.Tick(w.tick, TickRate, w.settings.DroneSendInterval)

	if w.secondTicker.Ticked {
		w.tickBases()
		w.resolveCaptures()
		w.updateBots()
	}
	if w.moveTicker.Ticked {
		w.drones.releaseQueued()
	}

	w.drones.step(1.0 / TickRate)

	changed := w.store.Dirty() || w.drones.Count() > 0
	w.store.Commit()
	if changed {
		w.broadcastSnapshot()
	}
}

// AddClient adds a newly connected client, assigns it a player id and the
// smaller team, and sends it the welcome and the active map. A full session
// rejects the client.
func (w *World) AddClient(client *Client) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.clients) >= MaxPlayers {
		return fmt.Errorf("session is full (%d players)", MaxPlayers)
	}

	client.ID = w.nextID
	w.nextID++
	client.Team = w.pickTeamLocked()
	w.clients[client.ID] = client

	client.sendWelcome()
	if w.starmap != nil {
		client.sendMap(w.starmap)
	}

	log.Printf("Player %d joined the game on team %d", client.ID, client.Team)
	return nil
}

// pickTeamLocked balances joining players across the two playable teams.
func (w *World) pickTeamLocked() int {
	counts := [2]int{}
	for _, c := range w.clients {
		if c.Team == 0 || c.Team == 1 {
			counts[c.Team]++
		}
	}
	if counts[1] < counts[0] {
		return 1
	}
	return 0
}

// RemoveClient removes a client from the world
func (w *World) RemoveClient(clientID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if client, exists := w.clients[clientID]; exists {
		log.Printf("Player %d left the game", clientID)
		close(client.Send)
		delete(w.clients, clientID)
	}
}

// GetClient returns a client by ID
func (w *World) GetClient(id uint32) (*Client, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	client, exists := w.clients[id]
	return client, exists
}

// HandleCommand processes one decoded client command against the
// authoritative state. Every mutating command re-validates here; the client
// side checks are only for responsiveness.
func (w *World) HandleCommand(clientID uint32, cmd CommandMsg) {
	w.mu.Lock()
	defer w.mu.Unlock()

	client, exists := w.clients[clientID]
	if !exists {
		return
	}
	client.LastSeen = time.Now()

	switch cmd.Type {
	case CmdJoin:
		// Joining happens at connect time; the ack just confirms the team.
		client.sendAck(cmd.Type, -1, true, "")
	case CmdSendDrones:
		w.handleSendDrones(client, cmd)
	case CmdUpgrade:
		w.handleUpgrade(client, cmd)
	case CmdCapture:
		w.handleCapture(client, cmd)
	case CmdWaypoint:
		w.handleWaypoint(client, cmd)
	case CmdReloadMap:
		w.handleReloadMap(client, cmd)
	case CmdSetSetting:
		w.handleSetSetting(client, cmd)
	case CmdHover:
		base := w.store.Get(cmd.BaseID)
		w.events.Hover(cmd.BaseID, base.Team != client.Team)
	case CmdStopHover:
		w.events.StopHover(cmd.BaseID)
	case CmdSelect:
		w.events.Select(cmd.BaseID, cmd.Count)
	default:
		log.Printf("Player %d sent unknown command %q", clientID, cmd.Type)
		client.sendError(fmt.Sprintf("unknown command %q", cmd.Type))
	}
}

func (w *World) handleSendDrones(client *Client, cmd CommandMsg) {
	base := w.store.Get(cmd.BaseID)
	if base.Team != client.Team {
		client.sendAck(cmd.Type, cmd.BaseID, false, "not your base")
		return
	}
	before := w.drones.Count()
	w.sendDronesLocked(cmd.BaseID, cmd.TargetID, cmd.Count)
	client.sendAck(cmd.Type, cmd.BaseID, w.drones.Count() > before, "")
}

func (w *World) handleUpgrade(client *Client, cmd CommandMsg) {
	base := w.store.Get(cmd.BaseID)
	if base.Team != client.Team {
		client.sendAck(cmd.Type, cmd.BaseID, false, "not your base")
		return
	}
	if !w.store.CanUpgrade(cmd.BaseID, w.settings) {
		client.sendAck(cmd.Type, cmd.BaseID, false, "upgrade unavailable")
		return
	}

	level := w.settings.Level(base.UpgradeLevel)
	base.RemoveDrones(level.UpgradeCost)
	base.UpgradeTime = level.UpgradeTime
	w.store.Set(cmd.BaseID, base)
	w.teams.RemoveDrones(base.Team, level.UpgradeCost)

	if level.UpgradeTime == 0 {
		// Instant upgrades complete without waiting for a second edge.
		base.UpgradeLevel++
		w.store.Set(cmd.BaseID, base)
		w.events.Upgraded(cmd.BaseID, base.Team)
	}
	client.sendAck(cmd.Type, cmd.BaseID, true, "")
}

func (w *World) handleCapture(client *Client, cmd CommandMsg) {
	if !w.store.CanCapture(cmd.BaseID) {
		client.sendAck(cmd.Type, cmd.BaseID, false, "base is defended")
		return
	}
	team, ok := w.drones.CapturingTeam(cmd.BaseID)
	if !ok || team != client.Team {
		client.sendAck(cmd.Type, cmd.BaseID, false, "no orbiting drones")
		return
	}
	w.startCapture(cmd.BaseID, team)
	client.sendAck(cmd.Type, cmd.BaseID, true, "")
}

// handleWaypoint implements the two-press waypoint protocol: the first press
// arms an owned base as the origin, the second press sets its standing
// waypoint, and pressing the armed origin again cancels the arm, leaving any
// existing waypoint untouched.
func (w *World) handleWaypoint(client *Client, cmd CommandMsg) {
	baseID := cmd.BaseID

	if w.waypointArm == -1 {
		base := w.store.Get(baseID)
		if base.Team != client.Team {
			client.sendAck(cmd.Type, baseID, false, "not your base")
			return
		}
		w.waypointArm = baseID
		client.sendAck(cmd.Type, baseID, true, "armed")
		return
	}

	if w.waypointArm == baseID {
		w.waypointArm = -1
		client.sendAck(cmd.Type, baseID, true, "cancelled")
		return
	}

	origin := w.waypointArm
	w.waypointArm = -1
	if w.store.Get(origin).Team != client.Team {
		client.sendAck(cmd.Type, origin, false, "origin lost")
		return
	}
	w.drones.setWaypoint(origin, baseID)
	client.sendAck(cmd.Type, origin, true, "")
}

func (w *World) handleReloadMap(client *Client, cmd CommandMsg) {
	settings, ok := RandomizedStarmapPresets[MapSize(cmd.MapSize)]
	if !ok {
		client.sendAck(cmd.Type, -1, false, fmt.Sprintf("unknown map size %q", cmd.MapSize))
		return
	}
	starmap, err := GenerateStarmap(settings, w.rng)
	if err != nil {
		// The old map stays live; a failed roll must never strand the match.
		client.sendAck(cmd.Type, -1, false, err.Error())
		return
	}
	if err := w.loadStarmapLocked(starmap); err != nil {
		client.sendAck(cmd.Type, -1, false, err.Error())
		return
	}
	client.sendAck(cmd.Type, -1, true, "")
}

func (w *World) handleSetSetting(client *Client, cmd CommandMsg) {
	if err := w.settings.Set(cmd.Key, cmd.Value); err != nil {
		client.sendAck(cmd.Type, -1, false, err.Error())
		return
	}
	log.Printf("Player %d set %s=%s", client.ID, cmd.Key, cmd.Value)
	client.sendAck(cmd.Type, -1, true, "")
}

// Tick returns the current simulation tick, for diagnostics.
func (w *World) Tick() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}
