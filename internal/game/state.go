// Package game contains the rules of Compact Conflict: immutable game states,
// move application, combat and the end-of-turn economy.
package game

import (
	"math"
	"slices"

	"github.com/benbjohnson/immutable"

	"compact-conflict/pkg/maps"
)

// Neutral marks a region without an owner.
const Neutral = -1

// Result is the outcome of a finished game.
type Result struct {
	Winner int  `json:"winner"` // Neutral on a draw
	Draw   bool `json:"draw"`
}

// GameState is one immutable snapshot of a game. Every operation that changes
// the game returns a new state; per-region tables are persistent lists so a
// successor shares everything it did not touch with its parent.
type GameState struct {
	Map     *maps.Map
	Players []*Player
	Setup   Setup

	Turn           int
	Current        int
	MovesRemaining int
	SoldiersBought int
	Simulating     bool
	Result         *Result

	arena     *Arena
	owners    *immutable.List[int]
	temples   *immutable.List[*Temple]
	soldiers  *immutable.List[[]Soldier]
	conquered *immutable.List[bool]
	faith     *immutable.List[int]
}

// NewState creates an empty board: every region neutral, no temples and no
// soldiers. Player 0 moves first on turn 1.
func NewState(m *maps.Map, players []*Player, setup Setup, arena *Arena) *GameState {
	n := m.Len()
	owners := make([]int, n)
	for i := range owners {
		owners[i] = Neutral
	}
	return &GameState{
		Map:            m,
		Players:        players,
		Setup:          setup,
		Turn:           1,
		MovesRemaining: BaseMoves,
		arena:          arena,
		owners:         immutable.NewList(owners...),
		temples:        immutable.NewList(make([]*Temple, n)...),
		soldiers:       immutable.NewList(make([][]Soldier, n)...),
		conquered:      immutable.NewList(make([]bool, n)...),
		faith:          immutable.NewList(make([]int, len(players))...),
	}
}

func (g *GameState) clone() *GameState {
	c := *g
	return &c
}

// Arena returns the run services shared by this state.
func (g *GameState) Arena() *Arena {
	return g.arena
}

// Simulation returns a copy whose combat is deterministic.
func (g *GameState) Simulation() *GameState {
	c := g.clone()
	c.Simulating = true
	return c
}

// Live returns a copy whose combat draws from the arena's random source.
func (g *GameState) Live() *GameState {
	c := g.clone()
	c.Simulating = false
	return c
}

// CurrentPlayer returns the player whose turn it is.
func (g *GameState) CurrentPlayer() *Player {
	return g.Players[g.Current]
}

// IsOver reports whether the game has ended.
func (g *GameState) IsOver() bool {
	return g.Result != nil
}

// Owner returns the owning player index of region r, or Neutral.
func (g *GameState) Owner(r int) int {
	return g.owners.Get(r)
}

// Temple returns the temple in region r, or nil.
func (g *GameState) Temple(r int) *Temple {
	return g.temples.Get(r)
}

// SoldierCount returns the number of soldiers in region r.
func (g *GameState) SoldierCount(r int) int {
	return len(g.soldiers.Get(r))
}

// Soldiers returns a copy of the soldiers in region r.
func (g *GameState) Soldiers(r int) []Soldier {
	return slices.Clone(g.soldiers.Get(r))
}

// Conquered reports whether region r changed hands this turn.
func (g *GameState) Conquered(r int) bool {
	return g.conquered.Get(r)
}

// Faith returns the faith balance of player p.
func (g *GameState) Faith(p int) int {
	return g.faith.Get(p)
}

// Regions returns the regions owned by player p in index order.
func (g *GameState) Regions(p int) []int {
	var out []int
	for r := 0; r < g.owners.Len(); r++ {
		if g.owners.Get(r) == p {
			out = append(out, r)
		}
	}
	return out
}

// RegionCount returns how many regions player p owns.
func (g *GameState) RegionCount(p int) int {
	count := 0
	for r := 0; r < g.owners.Len(); r++ {
		if g.owners.Get(r) == p {
			count++
		}
	}
	return count
}

// TotalSoldiers returns the number of soldiers player p has on the board.
func (g *GameState) TotalSoldiers(p int) int {
	total := 0
	for r := 0; r < g.owners.Len(); r++ {
		if g.owners.Get(r) == p {
			total += len(g.soldiers.Get(r))
		}
	}
	return total
}

// Temples returns the regions holding temples owned by player p.
func (g *GameState) Temples(p int) []int {
	var out []int
	for r := 0; r < g.owners.Len(); r++ {
		if g.owners.Get(r) == p && g.temples.Get(r) != nil {
			out = append(out, r)
		}
	}
	return out
}

// UpgradeLevel returns the strongest effect of upgrade kind among the temples
// owned by player p. Neutral never has upgrades.
func (g *GameState) UpgradeLevel(p int, kind UpgradeKind) int {
	if p == Neutral {
		return 0
	}
	best := 0
	for _, r := range g.Temples(p) {
		if t := g.temples.Get(r); t.Upgrade == kind {
			best = max(best, t.Effect())
		}
	}
	return best
}

// MovesPerTurn returns how many army moves player p gets at turn start.
func (g *GameState) MovesPerTurn(p int) int {
	return BaseMoves + g.UpgradeLevel(p, UpgradeAir)
}

// SoldierPrice returns the price of the next soldier this turn.
func (g *GameState) SoldierPrice() int {
	return SoldierPrice(g.SoldiersBought)
}

// Income returns the faith player p collects when ending a turn. A player
// without temples earns nothing.
func (g *GameState) Income(p int) int {
	regions, temples, templeSoldiers := 0, 0, 0
	for r := 0; r < g.owners.Len(); r++ {
		if g.owners.Get(r) != p {
			continue
		}
		regions++
		if g.temples.Get(r) != nil {
			temples++
			templeSoldiers += len(g.soldiers.Get(r))
		}
	}
	if temples == 0 {
		return 0
	}
	multiplier := 1 + 0.01*float64(g.UpgradeLevel(p, UpgradeWater))
	if g.Players[p].IsAI() && g.Setup.Difficulty == DifficultyEvil {
		multiplier *= g.Setup.cheatMultiplier()
	}
	return int(math.Ceil(float64(regions+templeSoldiers)*multiplier - 1e-9))
}

// Alive returns the players that still own at least one region.
func (g *GameState) Alive() []int {
	var alive []int
	for p := range g.Players {
		if g.RegionCount(p) > 0 {
			alive = append(alive, p)
		}
	}
	return alive
}

func (g *GameState) setOwner(r, p int) {
	g.owners = g.owners.Set(r, p)
}

func (g *GameState) setTemple(r int, t *Temple) {
	g.temples = g.temples.Set(r, t)
}

func (g *GameState) setSoldiers(r int, s []Soldier) {
	g.soldiers = g.soldiers.Set(r, s)
}

func (g *GameState) setConquered(r int, v bool) {
	g.conquered = g.conquered.Set(r, v)
}

func (g *GameState) addFaith(p, amount int) {
	g.faith = g.faith.Set(p, g.faith.Get(p)+amount)
}

// addSoldier appends one fresh soldier to region r.
func (g *GameState) addSoldier(r int) {
	cur := g.soldiers.Get(r)
	next := make([]Soldier, len(cur), len(cur)+1)
	copy(next, cur)
	g.setSoldiers(r, append(next, g.arena.NewSoldier()))
}

// Place returns a copy where region r belongs to owner and holds count fresh
// soldiers.
func (g *GameState) Place(r, owner, count int) *GameState {
	next := g.clone()
	soldiers := make([]Soldier, count)
	for i := range soldiers {
		soldiers[i] = g.arena.NewSoldier()
	}
	next.setOwner(r, owner)
	next.setSoldiers(r, soldiers)
	return next
}

// WithTemple returns a copy with temple t in its region.
func (g *GameState) WithTemple(t Temple) *GameState {
	next := g.clone()
	next.setTemple(t.Region, &t)
	return next
}

// WithFaith returns a copy where player p holds amount faith.
func (g *GameState) WithFaith(p, amount int) *GameState {
	next := g.clone()
	next.faith = next.faith.Set(p, amount)
	return next
}

// sweep eliminates players left without soldiers and decides the game once
// fewer than two players remain or the turn limit has passed.
func (g *GameState) sweep() {
	for p := range g.Players {
		if g.RegionCount(p) == 0 || g.TotalSoldiers(p) > 0 {
			continue
		}
		for _, r := range g.Regions(p) {
			g.setOwner(r, Neutral)
		}
		if p == g.Current {
			g.MovesRemaining = 0
		}
	}
	if len(g.Alive()) < 2 || (g.Setup.TurnLimit != UnlimitedTurns && g.Turn > g.Setup.TurnLimit) {
		g.Result = g.standings()
	}
}

// standings ranks players by region count. A shared lead is a draw.
func (g *GameState) standings() *Result {
	best, bestCount, tied := Neutral, 0, false
	for p := range g.Players {
		count := g.RegionCount(p)
		switch {
		case count > bestCount:
			best, bestCount, tied = p, count, false
		case count == bestCount && count > 0:
			tied = true
		}
	}
	if best == Neutral || tied {
		return &Result{Winner: Neutral, Draw: true}
	}
	return &Result{Winner: best}
}
