// Package ai implements the computer opponent: a heuristic position
// evaluator, a time-boxed minimax search and the economic pre-filters that
// run before it.
package ai

import (
	"compact-conflict/internal/game"
)

// Evaluation weights.
const (
	templeBonusStart   = 6.0
	templeBonusDropOff = 0.5
	upgradeBonusStart  = 4.0
	upgradeDropOff     = 0.9
	soldierBonusStart  = 0.25
	soldierDropOff     = 0.83
	faithPerSoldier    = 12.0
	winBonus           = 1e6
)

// threatDepth returns how far threat scans reach for difficulty d, or -1 when
// the AI ignores threat and opportunity.
func threatDepth(d game.Difficulty) int {
	switch d {
	case game.DifficultyNice:
		return -1
	case game.DifficultyRude:
		return 0
	default:
		return 2
	}
}

// slidingBonus interpolates from start to end as the game moves from
// dropOff (a fraction of the turn limit) to the limit. Games without a limit
// always get start.
func slidingBonus(g *game.GameState, start, end, dropOff float64) float64 {
	limit := g.Setup.TurnLimit
	if limit == game.UnlimitedTurns {
		return start
	}
	from := dropOff * float64(limit)
	alpha := (float64(g.Turn) - from) / (float64(limit) - from)
	alpha = min(max(alpha, 0), 1)
	return start + (end-start)*alpha
}

// RegionValue is the worth of holding region r regardless of its garrison.
func RegionValue(g *game.GameState, r int) float64 {
	t := g.Temple(r)
	if t == nil {
		return 1
	}
	value := 1 + slidingBonus(g, templeBonusStart, 0, templeBonusDropOff)
	if !t.Bare() {
		value += slidingBonus(g, upgradeBonusStart, 0, upgradeDropOff) * float64(t.Level+1)
	}
	return value
}

// Evaluate scores g from player's point of view; higher is better.
func Evaluate(g *game.GameState, player int) float64 {
	if g.Result != nil {
		switch {
		case g.Result.Draw:
		case g.Result.Winner == player:
			return winBonus
		default:
			return -winBonus
		}
	}

	depth := threatDepth(g.Setup.Difficulty)
	soldierBonus := slidingBonus(g, soldierBonusStart, 0, soldierDropOff)

	total := 0.0
	for _, r := range g.Regions(player) {
		value := RegionValue(g, r)
		threat, opportunity := 0.0, 0.0
		if depth >= 0 {
			threat = Threat(g, r, depth)
			opportunity = Opportunity(g, r)
		}
		total += value*(1-threat) + opportunity + soldierBonus*float64(g.SoldierCount(r))
	}
	total += float64(g.Income(player)) * soldierBonus / faithPerSoldier
	return total
}

// Threat estimates how exposed region r is to enemy armies within depth
// steps of its borders, from 0 (safe) to a little above 1 (lost).
func Threat(g *game.GameState, r, depth int) float64 {
	owner := g.Owner(r)
	presence := 0.0
	for _, n := range g.Map.Region(r).Neighbors {
		enemy := g.Owner(n)
		if enemy == owner || enemy == game.Neutral {
			continue
		}
		presence = max(presence, forceNear(g, n, depth))
	}
	if presence == 0 {
		return 0
	}
	own := float64(g.SoldierCount(r))
	return min(max((presence/(own+0.0001)-1)/1.5, 0), 1.1)
}

// forceNear sums the soldiers of start's owner reachable from start through
// that owner's regions, decaying by a quarter per step.
func forceNear(g *game.GameState, start, depth int) float64 {
	owner := g.Owner(start)
	visited := map[int]bool{start: true}
	frontier := []int{start}
	total := 0.0
	for d := 0; d <= depth && len(frontier) > 0; d++ {
		decay := float64(4-d) / 4
		var next []int
		for _, r := range frontier {
			total += decay * float64(g.SoldierCount(r))
			for _, n := range g.Map.Region(r).Neighbors {
				if !visited[n] && g.Owner(n) == owner {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return total
}

// Opportunity rates the regions r could attack next, weighted by their value.
func Opportunity(g *game.GameState, r int) float64 {
	owner := g.Owner(r)
	attackers := float64(g.SoldierCount(r))
	total := 0.0
	for _, n := range g.Map.Region(r).Neighbors {
		if g.Owner(n) == owner {
			continue
		}
		defenders := float64(g.SoldierCount(n))
		chance := min(max((attackers/(defenders+0.01)-0.9)*0.5, 0), 0.5)
		total += chance * RegionValue(g, n)
	}
	return total
}
