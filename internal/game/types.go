package game

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Vec3 is a position in starfield space.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Distance returns the Euclidean distance between two points.
func (v Vec3) Distance(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the magnitude of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// MoveTowards returns v advanced towards target by at most step.
func (v Vec3) MoveTowards(target Vec3, step float64) Vec3 {
	delta := target.Sub(v)
	dist := delta.Length()
	if dist <= step || dist == 0 {
		return target
	}
	return v.Add(delta.Scale(step / dist))
}

// BaseData is one record of the replicated base array. It is copied out of
// the store, mutated, and written back; never held by reference.
type BaseData struct {
	ID           int                 `json:"id" msgpack:"id"`
	Team         int                 `json:"team" msgpack:"team"`
	DroneCount   int                 `json:"droneCount" msgpack:"droneCount"`
	Defense      int                 `json:"defense" msgpack:"defense"`
	UpgradeLevel int                 `json:"upgradeLevel" msgpack:"upgradeLevel"`
	UpgradeTime  int                 `json:"upgradeTime" msgpack:"upgradeTime"`
	CaptureTime  int                 `json:"captureTime" msgpack:"captureTime"`
	Position     Vec3                `json:"position" msgpack:"position"`
	Connected    [MaxConnections]int `json:"connected" msgpack:"connected"`
}

// ProduceDrones adds drones to the base stock.
func (b *BaseData) ProduceDrones(amount int) {
	b.DroneCount += amount
}

// RemoveDrones removes drones from the base stock, clamping at zero.
func (b *BaseData) RemoveDrones(amount int) {
	b.DroneCount -= amount
	if b.DroneCount < 0 {
		b.DroneCount = 0
	}
}

// ConnectedIDs returns the connected base ids without the -1 sentinels.
func (b *BaseData) ConnectedIDs() []int {
	ids := make([]int, 0, MaxConnections)
	for _, id := range b.Connected {
		if id == -1 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DronePhase tracks which stage of its lifecycle a drone is in.
type DronePhase int

const (
	DroneQueued DronePhase = iota
	DroneInTransit
	DroneOrbiting
	DroneDestroyed
)

// Drone is a unit in transit between bases or orbiting a contested base.
type Drone struct {
	ID       uint32     `json:"id" msgpack:"id"`
	Team     int        `json:"team" msgpack:"team"`
	Damage   int        `json:"damage" msgpack:"damage"`
	Defense  int        `json:"defense" msgpack:"defense"`
	Route    []int      `json:"route" msgpack:"route"`
	LegIndex int        `json:"legIndex" msgpack:"legIndex"`
	Position Vec3       `json:"position" msgpack:"position"`
	Phase    DronePhase `json:"phase" msgpack:"phase"`
	Killed   bool       `json:"killed" msgpack:"killed"`

	// decayTicks counts down the cosmetic decay period after a kill before
	// the drone is despawned.
	decayTicks int
}

// Origin returns the base id the drone most recently departed.
func (d *Drone) Origin() int {
	return d.Route[d.LegIndex]
}

// Destination returns the base id the drone is currently heading for.
func (d *Drone) Destination() int {
	return d.Route[d.LegIndex+1]
}

// FinalDestination returns the last base id on the drone's route.
func (d *Drone) FinalDestination() int {
	return d.Route[len(d.Route)-1]
}

// TeamData holds the aggregate counters replicated per team.
type TeamData struct {
	Bases  int `json:"bases" msgpack:"bases"`
	Drones int `json:"drones" msgpack:"drones"`
}

// CommandMsg is a player request decoded from the client connection. All
// mutating commands round-trip through the authority; the ack carries the
// authoritative outcome.
type CommandMsg struct {
	Type     string `json:"type"`
	BaseID   int    `json:"baseId"`
	TargetID int    `json:"targetId"`
	Count    int    `json:"count"`
	MapSize  string `json:"mapSize"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// WelcomeMsg tells a client its player id and team after joining.
type WelcomeMsg struct {
	Type     string `msgpack:"type"`
	PlayerID uint32 `msgpack:"playerId"`
	Team     int    `msgpack:"team"`
}

// AckMsg reports the authoritative outcome of a command back to its sender.
type AckMsg struct {
	Type    string `msgpack:"type"`
	Command string `msgpack:"command"`
	BaseID  int    `msgpack:"baseId"`
	OK      bool   `msgpack:"ok"`
	Reason  string `msgpack:"reason,omitempty"`
}

// ErrorMsg reports a protocol-level problem that has no command to ack.
type ErrorMsg struct {
	Type    string `msgpack:"type"`
	Message string `msgpack:"message"`
}

// MapMsg carries the full starmap to clients when it is (re)generated.
type MapMsg struct {
	Type        string    `msgpack:"type"`
	Nodes       []MapNode `msgpack:"nodes"`
	Fingerprint string    `msgpack:"fingerprint"`
}

// Snapshot is the full replicated state pushed to every client once per
// simulation tick in which something changed.
type Snapshot struct {
	Type           string     `msgpack:"type"`
	Tick           int        `msgpack:"tick"`
	Seconds        int        `msgpack:"seconds"`
	Bases          []BaseData `msgpack:"bases"`
	Drones         []Drone    `msgpack:"drones"`
	Teams          []TeamData `msgpack:"teams"`
	MapFingerprint string     `msgpack:"mapFingerprint"`
	Time           int64      `msgpack:"time"`
}

// Client represents a connected game client.
type Client struct {
	ID       uint32
	Team     int
	Conn     *websocket.Conn
	Send     chan []byte
	LastSeen time.Time
	mu       sync.RWMutex
}

// NewClient creates a new client around an accepted connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		Team:     NeutralTeam,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		LastSeen: time.Now(),
	}
}

// World owns one game session: the authoritative base array, the drone
// swarm, the routing table, and the connected clients. All shared state is
// guarded by mu; non-authoritative worlds only mirror replicated snapshots.
type World struct {
	mu        sync.Mutex
	authority bool
	running   bool

	settings   *GameSettings
	starmap    *Starmap
	pathfinder *Pathfinder
	store      *BaseStore
	teams      *TeamStats
	drones     *DroneManager
	events     EventSink

	clients map[uint32]*Client
	bots    map[int]*Bot
	nextID  uint32
	rng     *rand.Rand

	tick         int
	secondTicker SecondTicker
	moveTicker   MoveTicker

	// waypointArm holds the base id armed by the first waypoint press, or
	// -1 when no origin is armed.
	waypointArm int

	snapshotCount     int64
	totalSnapshotSize int64
}
