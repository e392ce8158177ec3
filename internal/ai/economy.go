package ai

import (
	"compact-conflict/internal/game"
)

var defaultPersonality = game.Personality{Name: "default", SoldierEagerness: 0.5}

func personalityOf(g *game.GameState, p int) game.Personality {
	if pers := g.Players[p].Personality; pers != nil {
		return *pers
	}
	return defaultPersonality
}

// SoldierPurchase returns a soldier build for the current player when buying
// is worth it: the force gap to the strongest opponent, scaled by the
// player's eagerness, must outweigh the share of the treasury it costs. The
// soldier goes to the most threatened temple.
func SoldierPurchase(g *game.GameState) (game.BuildMove, bool) {
	p := g.Current
	temples := g.Temples(p)
	faith := g.Faith(p)
	price := g.SoldierPrice()
	if len(temples) == 0 || faith < price || faith == 0 {
		return game.BuildMove{}, false
	}

	own := g.TotalSoldiers(p)
	strongest := 0
	for _, other := range g.Alive() {
		if other != p {
			strongest = max(strongest, g.TotalSoldiers(other))
		}
	}
	disparity := float64(strongest) / float64(max(own, 1))
	relativeCost := float64(price) / float64(faith)
	if disparity*personalityOf(g, p).SoldierEagerness <= relativeCost {
		return game.BuildMove{}, false
	}

	depth := max(threatDepth(g.Setup.Difficulty), 0)
	best, bestThreat := temples[0], -1.0
	for _, r := range temples {
		if t := Threat(g, r, depth); t > bestThreat {
			best, bestThreat = r, t
		}
	}
	return game.BuildMove{Upgrade: game.UpgradeSoldier, Temple: best}, true
}

// DesiredUpgrade returns the first entry of the personality queue the player
// does not own yet. Repeated entries ask for further levels.
func DesiredUpgrade(g *game.GameState, p int) (game.UpgradeKind, bool) {
	owned := make(map[game.UpgradeKind]int)
	for _, r := range g.Temples(p) {
		if t := g.Temple(r); !t.Bare() {
			owned[t.Upgrade] += t.Level + 1
		}
	}
	wanted := make(map[game.UpgradeKind]int)
	for _, kind := range personalityOf(g, p).Upgrades {
		wanted[kind]++
		if wanted[kind] > owned[kind] {
			return kind, true
		}
	}
	return game.UpgradeNone, false
}

// UpgradePurchase returns a build for the current player's next desired
// upgrade if it is affordable now. Existing temples of the same kind are
// raised first; otherwise the safest bare temple gets it.
func UpgradePurchase(g *game.GameState) (game.BuildMove, bool) {
	p := g.Current
	kind, ok := DesiredUpgrade(g, p)
	if !ok {
		return game.BuildMove{}, false
	}

	depth := max(threatDepth(g.Setup.Difficulty), 0)
	best, bestThreat, advancing := -1, 0.0, false
	for _, r := range g.Temples(p) {
		t := g.Temple(r)
		if t.NextCost(kind) < 0 {
			continue
		}
		raise := t.Upgrade == kind
		if !raise && !t.Bare() {
			continue
		}
		threat := Threat(g, r, depth)
		switch {
		case best < 0, raise && !advancing:
		case raise == advancing && threat < bestThreat:
		default:
			continue
		}
		best, bestThreat, advancing = r, threat, raise
	}
	if best < 0 || g.Temple(best).NextCost(kind) > g.Faith(p) {
		return game.BuildMove{}, false
	}
	return game.BuildMove{Upgrade: kind, Temple: best}, true
}
