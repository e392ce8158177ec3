package game

import "math"

// Combat constants.
const (
	// MartyrBonus is the faith paid to a defending owner per soldier lost.
	MartyrBonus = 4

	defenderWeight = 120.0
	rollFloor      = 0.12
	rollSpan       = 0.76
	strengthExp    = 1.6
)

// Frame hints.
const (
	HintEarth     = "earth"
	HintFire      = "fire"
	HintConquered = "conquered"
	HintDefended  = "defended"
)

// Frame is one step of a battle replay.
type Frame struct {
	AttackerLosses int    `json:"attackerLosses"`
	DefenderLosses int    `json:"defenderLosses"`
	Hint           string `json:"hint,omitempty"`
}

// Battle records how a fight between two owners played out so it can be
// replayed to observers or re-applied to another state.
type Battle struct {
	Source      int     `json:"source"`
	Destination int     `json:"destination"`
	Count       int     `json:"count"`
	Attacker    int     `json:"attacker"`
	Defender    int     `json:"defender"`
	Defenders   int     `json:"defenders"`
	Frames      []Frame `json:"frames"`
	Survivors   int     `json:"survivors"` // attackers left standing
	Conquered   bool    `json:"conquered"`
}

// AttackerLosses sums attacker deaths over all frames.
func (b *Battle) AttackerLosses() int {
	total := 0
	for _, f := range b.Frames {
		total += f.AttackerLosses
	}
	return total
}

// DefenderLosses sums defender deaths over all frames.
func (b *Battle) DefenderLosses() int {
	total := 0
	for _, f := range b.Frames {
		total += f.DefenderLosses
	}
	return total
}

// matches reports whether the record was resolved for this move on this
// board.
func (b *Battle) matches(g *GameState, m ArmyMove) bool {
	return b.Source == m.Source && b.Destination == m.Destination && b.Count == m.Count &&
		b.Attacker == g.Owner(m.Source) && b.Defender == g.Owner(m.Destination) &&
		b.Defenders == g.SoldierCount(m.Destination)
}

// ResolveBattle fights count soldiers from source against destination without
// changing the state. It returns nil when both regions share an owner.
//
// Defender Earth kills incoming soldiers before any exchange. The exchange
// runs one round per soldier on the smaller side; each round kills exactly
// one soldier, unless the attacker's Fire charges absorb an attacker loss.
func (g *GameState) ResolveBattle(source, destination, count int) *Battle {
	attacker, defender := g.Owner(source), g.Owner(destination)
	if attacker == defender {
		return nil
	}
	b := &Battle{
		Source:      source,
		Destination: destination,
		Count:       count,
		Attacker:    attacker,
		Defender:    defender,
		Defenders:   g.SoldierCount(destination),
	}
	incoming, defending := count, b.Defenders

	earth := g.UpgradeLevel(defender, UpgradeEarth)
	if killed := min(earth, incoming); killed > 0 {
		incoming -= killed
		b.Frames = append(b.Frames, Frame{AttackerLosses: killed, Hint: HintEarth})
	}

	if incoming > 0 && defending > 0 {
		fire := g.UpgradeLevel(attacker, UpgradeFire)
		attack := float64(incoming) * (1 + 0.01*float64(fire))
		defense := float64(defending) * (1 + 0.01*float64(earth))
		winChance := 100 * math.Pow(attack/defense, strengthExp)
		maximum := defenderWeight + winChance

		repeats := min(incoming, defending)
		charges := fire
		for i := 0; i < repeats; i++ {
			if g.roll(i, repeats)*maximum > defenderWeight {
				defending--
				b.Frames = append(b.Frames, Frame{DefenderLosses: 1})
				continue
			}
			if charges > 0 {
				charges--
				b.Frames = append(b.Frames, Frame{Hint: HintFire})
				continue
			}
			incoming--
			b.Frames = append(b.Frames, Frame{AttackerLosses: 1})
		}
	}

	b.Survivors = incoming
	b.Conquered = incoming > 0 && defending == 0
	if b.Conquered {
		b.Frames = append(b.Frames, Frame{Hint: HintConquered})
	} else {
		b.Frames = append(b.Frames, Frame{Hint: HintDefended})
	}
	return b
}

// roll returns the fraction of the outcome range used for round i. Live
// games draw uniformly inside the middle band. Simulations step evenly
// through the middle of that band, never reaching its edges, so the same
// position always fights the same way and lopsided fights stay decisive.
func (g *GameState) roll(i, repeats int) float64 {
	if g.Simulating {
		return rollFloor + rollSpan*float64(i+3)/float64(repeats+5)
	}
	return rollFloor + rollSpan*g.arena.Float64()
}
