package ai

import (
	"math/rand"

	"compact-conflict/internal/game"
)

// conflictGame adapts game states to Search.
type conflictGame struct {
	rng *rand.Rand
}

func (c conflictGame) Moves(g *game.GameState) []game.Move {
	if g.IsOver() {
		return nil
	}
	moves := []game.Move{game.EndMove{}}
	moves = append(moves, ArmyMoves(g)...)
	c.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	return moves
}

func (conflictGame) Apply(g *game.GameState, m game.Move) (*game.GameState, bool) {
	next, _, err := g.Apply(m)
	return next, err == nil
}

func (conflictGame) Mover(g *game.GameState) int {
	return g.Current
}

func (conflictGame) Evaluate(g *game.GameState, player int) float64 {
	return Evaluate(g, player)
}

func (conflictGame) Terminal(g *game.GameState) bool {
	return g.IsOver()
}

// ArmyMoves lists the candidate army moves of the current player: the whole
// garrison and half of it towards every neighbor, skipping attacks that are
// outnumbered before the fight starts.
func ArmyMoves(g *game.GameState) []game.Move {
	if g.MovesRemaining <= 0 {
		return nil
	}
	var moves []game.Move
	for _, r := range g.Regions(g.Current) {
		count := g.SoldierCount(r)
		if count == 0 || g.Conquered(r) {
			continue
		}
		sizes := []int{count}
		if count > 1 {
			sizes = append(sizes, count/2)
		}
		for _, n := range g.Map.Region(r).Neighbors {
			hostile := g.Owner(n) != g.Current
			for _, size := range sizes {
				if hostile && size < g.SoldierCount(n) {
					continue
				}
				moves = append(moves, game.ArmyMove{Source: r, Destination: n, Count: size})
			}
		}
	}
	return moves
}
