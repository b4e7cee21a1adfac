package game

// Simulation constants
const (
	TickRate   = 60 // Server simulation steps per second
	MaxBases   = 64 // Capacity of the replicated base array
	MaxTeams   = 12 // Capacity of the team analytics array
	MaxPlayers = 8
)

// Starmap generation constants
const (
	MaxConnections      = 16     // Per-base connection slots; unused slots hold -1
	MaxPlacementSamples = 200000 // Rejection-sampling cap per node
	MaxGenerateAttempts = 5      // Full map attempts before generation fails
	NeutralTeam         = -1
	StartingDroneCount  = 10
)

// Drone constants
const (
	DroneDamage          = 1
	DroneDefense         = 1
	BaseDefense          = 0    // Default per-base defense, seeded at populate time
	DroneCollisionRadius = 0.35 // Same-lane drones closer than this exchange damage
	DroneArriveEpsilon   = 0.05 // Distance at which a drone counts as arrived
	DroneOrbitRadius     = 0.6  // Orbit distance of drones circling a contested base
)

// Message types for client-server communication
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeWelcome  = "welcome"
	MsgTypeAck      = "ack"
	MsgTypeError    = "error"
	MsgTypeMap      = "map"
)

// Command types accepted from clients
const (
	CmdJoin       = "join"
	CmdSendDrones = "sendDrones"
	CmdUpgrade    = "upgrade"
	CmdCapture    = "capture"
	CmdWaypoint   = "waypoint"
	CmdReloadMap  = "reloadMap"
	CmdSetSetting = "setSetting"
	CmdHover      = "hover"
	CmdStopHover  = "stopHover"
	CmdSelect     = "select"
)
