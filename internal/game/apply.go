package game

import "fmt"

// BaseMoves is the number of army moves a player gets per turn before Air.
const BaseMoves = 3

// Apply plays m for the current player and returns the successor state. The
// receiver is never modified. For army moves between different owners the
// resolved battle is returned too.
func (g *GameState) Apply(m Move) (*GameState, *Battle, error) {
	if g.Result != nil {
		return nil, nil, ErrGameOver
	}
	next := g.clone()
	var battle *Battle
	var err error
	switch v := m.(type) {
	case ArmyMove:
		battle, err = next.applyArmy(v)
	case BuildMove:
		err = next.applyBuild(v)
	case EndMove:
		next.endTurn()
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownMove, m)
	}
	if err != nil {
		return nil, nil, err
	}
	next.sweep()
	return next, battle, nil
}

// CanMove checks an army move against the current state without applying it.
func (g *GameState) CanMove(m ArmyMove) error {
	if !g.Map.Valid(m.Source) || !g.Map.Valid(m.Destination) {
		return ErrInvalidRegion
	}
	if g.Owner(m.Source) != g.Current {
		return ErrNotOwner
	}
	if !g.Map.Region(m.Source).IsNeighbor(m.Destination) {
		return ErrNotAdjacent
	}
	if g.MovesRemaining <= 0 {
		return ErrNoMovesLeft
	}
	if g.Conquered(m.Source) {
		return ErrRegionLocked
	}
	if m.Count < 1 || m.Count > g.SoldierCount(m.Source) {
		return ErrInvalidCount
	}
	return nil
}

func (g *GameState) applyArmy(m ArmyMove) (*Battle, error) {
	if err := g.CanMove(m); err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	g.MovesRemaining--

	source := g.soldiers.Get(m.Source)
	keep := len(source) - m.Count
	moving := source[keep:]
	g.setSoldiers(m.Source, source[:keep:keep])

	if g.Owner(m.Source) == g.Owner(m.Destination) {
		dest := g.soldiers.Get(m.Destination)
		merged := make([]Soldier, 0, len(dest)+len(moving))
		merged = append(append(merged, dest...), moving...)
		g.setSoldiers(m.Destination, merged)
		return nil, nil
	}

	battle := m.Battle
	if battle == nil {
		battle = g.ResolveBattle(m.Source, m.Destination, m.Count)
	} else if !battle.matches(g, m) {
		return nil, ErrBattleMismatch
	}

	survivors := moving[battle.AttackerLosses():]
	defenders := g.soldiers.Get(m.Destination)
	defenders = defenders[:len(defenders)-battle.DefenderLosses()]
	if battle.Defender != Neutral {
		g.addFaith(battle.Defender, MartyrBonus*battle.DefenderLosses())
	}

	if battle.Conquered {
		g.setOwner(m.Destination, battle.Attacker)
		g.setSoldiers(m.Destination, survivors)
		g.setConquered(m.Destination, true)
		if t := g.Temple(m.Destination); t != nil && !t.Bare() {
			g.setTemple(m.Destination, t.cleared())
		}
		return battle, nil
	}

	g.setSoldiers(m.Destination, defenders)
	back := g.soldiers.Get(m.Source)
	merged := make([]Soldier, 0, len(back)+len(survivors))
	merged = append(append(merged, back...), survivors...)
	g.setSoldiers(m.Source, merged)
	return battle, nil
}

func (g *GameState) applyBuild(m BuildMove) error {
	if !g.Map.Valid(m.Temple) {
		return fmt.Errorf("%w: temple %d", ErrInvalidRegion, m.Temple)
	}
	t := g.Temple(m.Temple)
	if t == nil {
		return fmt.Errorf("%s: %w", m, ErrNoTemple)
	}
	if g.Owner(m.Temple) != g.Current {
		return fmt.Errorf("%s: %w", m, ErrNotOwner)
	}

	switch {
	case m.Upgrade == UpgradeSoldier:
		price := g.SoldierPrice()
		if g.Faith(g.Current) < price {
			return fmt.Errorf("%s: %w", m, ErrInsufficientFaith)
		}
		g.addFaith(g.Current, -price)
		g.SoldiersBought++
		g.addSoldier(m.Temple)
	case m.Upgrade == UpgradeRebuild:
		g.setTemple(m.Temple, t.cleared())
	case m.Upgrade.IsElemental():
		cost := t.NextCost(m.Upgrade)
		if cost < 0 {
			return fmt.Errorf("%s: %w", m, ErrMaxLevel)
		}
		if g.Faith(g.Current) < cost {
			return fmt.Errorf("%s: %w", m, ErrInsufficientFaith)
		}
		level := 0
		if t.Upgrade == m.Upgrade {
			level = t.Level + 1
		}
		g.addFaith(g.Current, -cost)
		g.setTemple(m.Temple, &Temple{Region: m.Temple, Upgrade: m.Upgrade, Level: level})
		if m.Upgrade == UpgradeAir {
			g.MovesRemaining++
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownUpgrade, m.Upgrade)
	}
	return nil
}

// endTurn pays the ending player, grows their temples and hands the turn to
// the next player still on the board.
func (g *GameState) endTurn() {
	p := g.Current
	g.addFaith(p, g.Income(p))
	for _, r := range g.Temples(p) {
		g.addSoldier(r)
	}

	next := p
	for range g.Players {
		next = (next + 1) % len(g.Players)
		if next == 0 {
			g.Turn++
		}
		if g.RegionCount(next) > 0 {
			break
		}
	}

	g.Current = next
	g.MovesRemaining = g.MovesPerTurn(next)
	g.SoldiersBought = 0
	for r := 0; r < g.conquered.Len(); r++ {
		if g.conquered.Get(r) {
			g.setConquered(r, false)
		}
	}
}
