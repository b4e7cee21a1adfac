package game

// SecondTicker derives whole elapsed seconds from the simulation tick
// counter. Ticked fires exactly once per integer second, regardless of the
// cadence at which Tick is called: the comparison is always against the last
// recorded elapsed-seconds value, never a running countdown.
type SecondTicker struct {
	SecondsElapsed int
	Ticked         bool

	initialTick int
	tickRate    int
}

// Initialize baselines the ticker against the current simulation tick.
func (t *SecondTicker) Initialize(tick, tickRate int) {
	t.initialTick = tick
	t.tickRate = tickRate
	t.SecondsElapsed = 0
	t.Ticked = false
}

// Tick recomputes elapsed seconds and latches the one-shot edge.
func (t *SecondTicker) Tick(tick int) {
	if t.tickRate <= 0 {
		t.Ticked = false
		return
	}

	calculatedSeconds := (tick - t.initialTick) / t.tickRate
	if calculatedSeconds == t.SecondsElapsed {
		t.Ticked = false
		return
	}

	if calculatedSeconds > t.SecondsElapsed {
		t.Ticked = true
		t.SecondsElapsed = calculatedSeconds
	}
}

// MoveTicker is the coarser edge used to release queued drones. The period
// is tickRate times the configured send interval; if the interval setting
// changes mid-game the counter re-baselines instead of firing a burst of
// catch-up edges.
type MoveTicker struct {
	MoveTicksElapsed int
	Ticked           bool

	initialTick      int
	prevTicksPerMove int
}

// Initialize baselines the ticker against the current simulation tick.
func (t *MoveTicker) Initialize(tick int) {
	t.initialTick = tick
	t.MoveTicksElapsed = 0
	t.Ticked = false
	t.prevTicksPerMove = 0
}

// Tick recomputes elapsed move periods and latches the one-shot edge.
func (t *MoveTicker) Tick(tick, tickRate int, sendInterval float64) {
	ticksPerMove := int(float64(tickRate) * sendInterval)
	if ticksPerMove <= 0 {
		ticksPerMove = 1
	}

	elapsed := (tick - t.initialTick) / ticksPerMove

	if t.prevTicksPerMove != ticksPerMove {
		t.MoveTicksElapsed = elapsed
		t.prevTicksPerMove = ticksPerMove
	}

	if elapsed > t.MoveTicksElapsed {
		t.Ticked = true
		t.MoveTicksElapsed = elapsed
		return
	}
	t.Ticked = false
}
