package game

import (
	"log"
	"math"
)

const (
	botDecisionInterval = 3    // seconds between bot orders
	botSendFraction     = 0.5  // share of a full base's stock sent per attack
	botSurplusFraction  = 0.75 // stock/cap ratio at which a base is considered full
	botUpgradeReserve   = 4    // drones a bot keeps at home after paying an upgrade
)

// Bot is a computer commander for one team. It plays with the same commands
// a human issues: send surplus drones at the nearest target and upgrade when
// the stock allows, all re-validated by the authority like any other order.
type Bot struct {
	Team         int
	nextDecision int
}

// EnableBot attaches a bot commander to a team. Adding a bot for a team that
// already has one resets its decision timer.
func (w *World) EnableBot(team int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if team < 0 || team >= MaxTeams {
		return
	}
	w.bots[team] = &Bot{Team: team}
	log.Printf("Bot commander enabled for team %d", team)
}

// DisableBot detaches a team's bot commander.
func (w *World) DisableBot(team int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bots, team)
}

// updateBots runs every bot commander that has reached its decision time.
// Called on the second edge with the world lock held.
func (w *World) updateBots() {
	if len(w.bots) == 0 {
		return
	}

	now := w.secondTicker.SecondsElapsed
	for _, bot := range w.bots {
		if now < bot.nextDecision {
			continue
		}
		bot.nextDecision = now + botDecisionInterval
		w.runBotDecision(bot)
	}
}

// runBotDecision issues one round of orders for a bot's team: upgrade bases
// that can afford it with a reserve to spare, then launch attacks from bases
// sitting on surplus stock.
func (w *World) runBotDecision(bot *Bot) {
	for i := 0; i < w.store.Count(); i++ {
		base := w.store.Get(i)
		if base.Team != bot.Team || base.UpgradeTime != 0 {
			continue
		}

		level := w.settings.Level(base.UpgradeLevel)

		if w.store.CanUpgrade(i, w.settings) && base.DroneCount-level.UpgradeCost >= botUpgradeReserve {
			base.RemoveDrones(level.UpgradeCost)
			base.UpgradeTime = level.UpgradeTime
			w.store.Set(i, base)
			w.teams.RemoveDrones(base.Team, level.UpgradeCost)
			continue
		}

		if float64(base.DroneCount) >= botSurplusFraction*float64(level.MaxDrones) {
			target := w.findBotTarget(bot, i)
			if target == -1 {
				continue
			}
			count := int(float64(base.DroneCount) * botSendFraction)
			if count < 1 {
				count = 1
			}
			w.sendDronesLocked(i, target, count)
		}
	}
}

// findBotTarget picks the closest base by lane distance that the bot's team
// does not own, preferring undefended bases at equal footing by letting the
// distance comparison use the defender stock as a tiebreak penalty.
func (w *World) findBotTarget(bot *Bot, from int) int {
	best := -1
	bestScore := math.Inf(1)

	for i := 0; i < w.store.Count(); i++ {
		candidate := w.store.Get(i)
		if candidate.Team == bot.Team {
			continue
		}
		distance := w.pathfinder.Distance(from, i)
		if math.IsInf(distance, 1) {
			continue
		}
		score := distance + float64(candidate.DroneCount)*0.5
		if score < bestScore {
			bestScore = score
			best = i
		}
	}

	return best
}
