package game

import (
	"fmt"

	"compact-conflict/pkg/maps"
)

// RegionView is the observable content of one region.
type RegionView struct {
	Index     int      `json:"index"`
	Owner     int      `json:"owner"`
	Soldiers  []uint64 `json:"soldiers"`
	Temple    *Temple  `json:"temple,omitempty"`
	Conquered bool     `json:"conquered,omitempty"`
}

// View is a plain copy of a state for observers and persistence.
type View struct {
	Turn           int          `json:"turn"`
	Current        int          `json:"current"`
	MovesRemaining int          `json:"movesRemaining"`
	SoldiersBought int          `json:"soldiersBought"`
	Faith          []int        `json:"faith"`
	Regions        []RegionView `json:"regions"`
	Result         *Result      `json:"result,omitempty"`
	LastSoldierID  uint64       `json:"lastSoldierId"`
}

// View copies the state into a View.
func (g *GameState) View() View {
	v := View{
		Turn:           g.Turn,
		Current:        g.Current,
		MovesRemaining: g.MovesRemaining,
		SoldiersBought: g.SoldiersBought,
		Faith:          make([]int, len(g.Players)),
		Regions:        make([]RegionView, g.Map.Len()),
		LastSoldierID:  g.arena.NextID(),
	}
	if g.Result != nil {
		r := *g.Result
		v.Result = &r
	}
	for p := range g.Players {
		v.Faith[p] = g.Faith(p)
	}
	for r := range v.Regions {
		rv := RegionView{Index: r, Owner: g.Owner(r), Conquered: g.Conquered(r)}
		for _, s := range g.soldiers.Get(r) {
			rv.Soldiers = append(rv.Soldiers, s.ID)
		}
		if t := g.Temple(r); t != nil {
			c := *t
			rv.Temple = &c
		}
		v.Regions[r] = rv
	}
	return v
}

// FromView rebuilds a state from a View taken on the same map.
func FromView(m *maps.Map, players []*Player, setup Setup, v View) (*GameState, error) {
	if len(v.Regions) != m.Len() || len(v.Faith) != len(players) {
		return nil, ErrInvalidView
	}
	arena := NewArena(setup.Seed + 2)
	arena.advance(v.LastSoldierID)

	g := NewState(m, players, setup, arena)
	g.Turn, g.Current = v.Turn, v.Current
	g.MovesRemaining, g.SoldiersBought = v.MovesRemaining, v.SoldiersBought
	if v.Result != nil {
		r := *v.Result
		g.Result = &r
	}
	for p, f := range v.Faith {
		g.faith = g.faith.Set(p, f)
	}
	for _, rv := range v.Regions {
		if !m.Valid(rv.Index) {
			return nil, fmt.Errorf("%w: region %d", ErrInvalidView, rv.Index)
		}
		if rv.Owner != Neutral && (rv.Owner < 0 || rv.Owner >= len(players)) {
			return nil, fmt.Errorf("%w: owner %d", ErrInvalidView, rv.Owner)
		}
		soldiers := make([]Soldier, len(rv.Soldiers))
		for i, id := range rv.Soldiers {
			soldiers[i] = Soldier{ID: id}
		}
		g.setOwner(rv.Index, rv.Owner)
		g.setSoldiers(rv.Index, soldiers)
		g.setConquered(rv.Index, rv.Conquered)
		if rv.Temple != nil {
			t := *rv.Temple
			t.Region = rv.Index
			g.setTemple(rv.Index, &t)
		}
	}
	return g, nil
}

// LegalBuilds lists the build moves the current player can afford now.
func (g *GameState) LegalBuilds() []BuildMove {
	var out []BuildMove
	faith := g.Faith(g.Current)
	for _, r := range g.Temples(g.Current) {
		t := g.Temple(r)
		if faith >= g.SoldierPrice() {
			out = append(out, BuildMove{Upgrade: UpgradeSoldier, Temple: r})
		}
		for _, u := range Catalogue() {
			if !u.Kind.IsElemental() {
				continue
			}
			if cost := t.NextCost(u.Kind); cost >= 0 && faith >= cost {
				out = append(out, BuildMove{Upgrade: u.Kind, Temple: r})
			}
		}
		if !t.Bare() {
			out = append(out, BuildMove{Upgrade: UpgradeRebuild, Temple: r})
		}
	}
	return out
}
