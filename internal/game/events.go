package game

import "log"

// EventSink receives fire-and-forget notifications for the audio/visual
// collaborator. Implementations must never block the simulation; anything
// slow belongs behind a channel on the implementer's side.
type EventSink interface {
	Hover(baseID int, enemy bool)
	StopHover(baseID int)
	Select(baseID, count int)
	Move(baseID int, enemyTarget bool)
	Attack(baseID int)
	Launch(baseID int)
	Upgraded(baseID, team int)
	Captured(baseID, newTeam, oldTeam int)
	PopulationLimit(baseID int, over bool)
}

// LogSink is the default sink; it mirrors the events into the server log.
type LogSink struct{}

func (LogSink) Hover(baseID int, enemy bool) {}

func (LogSink) StopHover(baseID int) {}

func (LogSink) Select(baseID, count int) {}

func (LogSink) Move(baseID int, enemyTarget bool) {
	log.Printf("[Event] move order toward base %d (enemy target: %v)", baseID, enemyTarget)
}

func (LogSink) Attack(baseID int) {
	log.Printf("[Event] combat at base %d", baseID)
}

func (LogSink) Launch(baseID int) {}

func (LogSink) Upgraded(baseID, team int) {
	log.Printf("[Event] base %d upgraded (team %d)", baseID, team)
}

func (LogSink) Captured(baseID, newTeam, oldTeam int) {
	log.Printf("[Event] base %d changed hands: team %d -> team %d", baseID, oldTeam, newTeam)
}

func (LogSink) PopulationLimit(baseID int, over bool) {}

// NopSink discards all events; used by tests.
type NopSink struct{}

func (NopSink) Hover(baseID int, enemy bool)          {}
func (NopSink) StopHover(baseID int)                  {}
func (NopSink) Select(baseID, count int)              {}
func (NopSink) Move(baseID int, enemyTarget bool)     {}
func (NopSink) Attack(baseID int)                     {}
func (NopSink) Launch(baseID int)                     {}
func (NopSink) Upgraded(baseID, team int)             {}
func (NopSink) Captured(baseID, newTeam, oldTeam int) {}
func (NopSink) PopulationLimit(baseID int, over bool) {}
