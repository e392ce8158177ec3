package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"compact-conflict/internal/game"
	"compact-conflict/internal/match"
)

var errQuit = errors.New("player quit")

const helpText = `commands:
  move <from> <to> <count>   march soldiers to a neighboring region
  build <upgrade> <temple>   buy Soldier, Water, Fire, Air, Earth or Rebuild
  end                        end the turn
  board                      show the board again
  map                        show the region grid
  quit                       leave the game`

// parseCommand turns one input line into a move. A nil move with a nil
// error means the line was a display command.
func parseCommand(line string) (game.Move, string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, "", nil
	}
	switch strings.ToLower(fields[0]) {
	case "move", "m":
		if len(fields) != 4 {
			return nil, "", errors.New("usage: move <from> <to> <count>")
		}
		nums := make([]int, 3)
		for i, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, "", fmt.Errorf("not a number: %q", f)
			}
			nums[i] = n
		}
		return game.ArmyMove{Source: nums[0], Destination: nums[1], Count: nums[2]}, "", nil
	case "build", "b":
		if len(fields) != 3 {
			return nil, "", errors.New("usage: build <upgrade> <temple>")
		}
		kind, ok := game.ParseUpgrade(capitalize(fields[1]))
		if !ok || kind == game.UpgradeNone {
			return nil, "", fmt.Errorf("%w: %q", game.ErrUnknownUpgrade, fields[1])
		}
		temple, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, "", fmt.Errorf("not a number: %q", fields[2])
		}
		return game.BuildMove{Upgrade: kind, Temple: temple}, "", nil
	case "end", "e":
		return game.EndMove{}, "", nil
	case "board", "map", "help", "quit":
		return nil, strings.ToLower(fields[0]), nil
	default:
		return nil, "", fmt.Errorf("unknown command %q, type help", fields[0])
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// console lets people at the terminal play their seats.
type console struct {
	in  *bufio.Scanner
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out}
}

// Pick prompts until the player enters a legal move. Moves are checked on a
// simulated copy so the live dice are left alone.
func (c *console) Pick(ctx context.Context, g *game.GameState) (game.Move, error) {
	printBoard(c.out, g)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(c.out, "%s (%d moves, %d faith)> ", g.CurrentPlayer().Name, g.MovesRemaining, g.Faith(g.Current))
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return nil, err
			}
			return nil, errQuit
		}
		m, cmd, err := parseCommand(c.in.Text())
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		switch cmd {
		case "board":
			printBoard(c.out, g)
			continue
		case "map":
			fmt.Fprint(c.out, g.Map.Debug())
			continue
		case "help":
			fmt.Fprintln(c.out, helpText)
			continue
		case "quit":
			return nil, errQuit
		}
		if m == nil {
			continue
		}
		if _, _, err := g.Simulation().Apply(m); err != nil {
			fmt.Fprintln(c.out, "illegal:", err)
			continue
		}
		return m, nil
	}
}

func printBoard(w io.Writer, g *game.GameState) {
	fmt.Fprintf(w, "\nturn %d", g.Turn)
	if g.Setup.TurnLimit != game.UnlimitedTurns {
		fmt.Fprintf(w, " of %d", g.Setup.TurnLimit)
	}
	fmt.Fprintln(w)
	for _, p := range g.Players {
		fmt.Fprintf(w, "  %-10s %-7s regions %2d  soldiers %3d  faith %3d\n",
			p.Name, p.Color, g.RegionCount(p.Index), g.TotalSoldiers(p.Index), g.Faith(p.Index))
	}
	for r := 0; r < g.Map.Len(); r++ {
		owner := "neutral"
		if o := g.Owner(r); o != game.Neutral {
			owner = g.Players[o].Name
		}
		line := fmt.Sprintf("  [%2d] %-10s %2d soldiers", r, owner, g.SoldierCount(r))
		if t := g.Temple(r); t != nil {
			line += "  temple"
			if !t.Bare() {
				line += fmt.Sprintf(" %s %d", t.Upgrade, t.Level+1)
			}
		}
		line += "  ->"
		for _, n := range g.Map.Region(r).Neighbors {
			line += " " + strconv.Itoa(n)
		}
		fmt.Fprintln(w, line)
	}
}

func describe(ev match.Event) string {
	p := ev.State.Players[ev.Player].Name
	if ev.Battle == nil {
		return fmt.Sprintf("%s: %s", p, ev.Move)
	}
	outcome := "repelled"
	if ev.Battle.Conquered {
		outcome = "conquered"
	}
	return fmt.Sprintf("%s: %s, %s (lost %d, killed %d)",
		p, ev.Move, outcome, ev.Battle.AttackerLosses(), ev.Battle.DefenderLosses())
}

// announcer prints the match as it is played.
type announcer struct {
	out io.Writer
}

func (a announcer) MoveApplied(ev match.Event) {
	if _, ok := ev.Move.(game.EndMove); ok {
		return
	}
	fmt.Fprintln(a.out, describe(ev))
}

func (a announcer) MatchEnded(id string, g *game.GameState) {
	switch {
	case g.Result == nil:
		fmt.Fprintln(a.out, "match abandoned")
	case g.Result.Draw:
		fmt.Fprintf(a.out, "draw after turn %d\n", g.Turn)
	default:
		fmt.Fprintf(a.out, "%s wins on turn %d\n", g.Players[g.Result.Winner].Name, g.Turn)
	}
}
