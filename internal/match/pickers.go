package match

import (
	"context"

	"compact-conflict/internal/game"
)

// Pickers assigns computer to AI players and human to everyone else.
func Pickers(players []*game.Player, computer, human Picker) []Picker {
	out := make([]Picker, len(players))
	for i, p := range players {
		if p.IsAI() {
			out[i] = computer
		} else {
			out[i] = human
		}
	}
	return out
}

// Script replays a fixed list of moves, then ends every turn. It is used for
// replays and tests.
func Script(moves ...game.Move) Picker {
	return PickerFunc(func(ctx context.Context, g *game.GameState) (game.Move, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(moves) == 0 {
			return game.EndMove{}, nil
		}
		m := moves[0]
		moves = moves[1:]
		return m, nil
	})
}
