package game

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"

	"compact-conflict/pkg/maps"
)

// Difficulty selects how hard the AI plays.
type Difficulty int

const (
	DifficultyNice Difficulty = iota
	DifficultyRude
	DifficultyMean
	DifficultyEvil
)

var difficultyNames = []string{"nice", "rude", "mean", "evil"}

func (d Difficulty) String() string {
	if d < 0 || int(d) >= len(difficultyNames) {
		return "unknown"
	}
	return difficultyNames[d]
}

// ParseDifficulty is the inverse of Difficulty.String.
func ParseDifficulty(s string) (Difficulty, error) {
	if i := slices.Index(difficultyNames, s); i >= 0 {
		return Difficulty(i), nil
	}
	return 0, fmt.Errorf("%w: difficulty %q", ErrInvalidSetup, s)
}

// Setup constants.
const (
	UnlimitedTurns       = 0
	HomeSoldiers         = 4
	DefaultCheat         = 1.4
	MinNeutralSoldiers   = 3
	MaxNeutralSoldiers   = 6
	neutralTempleSpacing = 2
)

// Setup holds the parameters of a new game.
type Setup struct {
	Seats      []Controller `json:"seats"` // one per seat, ControllerOff for empty seats
	Difficulty Difficulty   `json:"difficulty"`
	TurnLimit  int          `json:"turnLimit"` // UnlimitedTurns for no limit
	Seed       int64        `json:"seed"`
	Cheat      float64      `json:"cheat,omitempty"` // AI income multiplier at DifficultyEvil
}

// DefaultSetup returns one human against two AI opponents.
func DefaultSetup() Setup {
	return Setup{
		Seats:      []Controller{ControllerHuman, ControllerAI, ControllerAI, ControllerOff},
		Difficulty: DifficultyMean,
		TurnLimit:  12,
		Seed:       1,
	}
}

func (s Setup) cheatMultiplier() float64 {
	if s.Cheat > 0 {
		return s.Cheat
	}
	return DefaultCheat
}

// Values flattens the setup into string pairs for storage.
func (s Setup) Values() map[string]string {
	v := map[string]string{
		"level": s.Difficulty.String(),
		"turns": strconv.Itoa(s.TurnLimit),
		"seed":  strconv.FormatInt(s.Seed, 10),
	}
	for i, c := range s.Seats {
		v[fmt.Sprintf("p%d", i)] = c.String()
	}
	if s.Cheat > 0 {
		v["cheat"] = strconv.FormatFloat(s.Cheat, 'g', -1, 64)
	}
	return v
}

// ParseSetup rebuilds a setup written by Values. Missing keys keep their
// DefaultSetup value.
func ParseSetup(v map[string]string) (Setup, error) {
	s := DefaultSetup()
	if _, ok := v["p0"]; ok {
		s.Seats = make([]Controller, maps.MaxPlayers)
	}
	for i := 0; i < maps.MaxPlayers; i++ {
		raw, ok := v[fmt.Sprintf("p%d", i)]
		if !ok {
			continue
		}
		c, err := ParseController(raw)
		if err != nil {
			return s, err
		}
		s.Seats[i] = c
	}
	if raw, ok := v["level"]; ok {
		d, err := ParseDifficulty(raw)
		if err != nil {
			return s, err
		}
		s.Difficulty = d
	}
	if raw, ok := v["turns"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return s, fmt.Errorf("%w: turns %q", ErrInvalidSetup, raw)
		}
		s.TurnLimit = n
	}
	if raw, ok := v["seed"]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return s, fmt.Errorf("%w: seed %q", ErrInvalidSetup, raw)
		}
		s.Seed = n
	}
	if raw, ok := v["cheat"]; ok {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return s, fmt.Errorf("%w: cheat %q", ErrInvalidSetup, raw)
		}
		s.Cheat = f
	}
	return s, nil
}

// NewPlayers creates the players for every occupied seat. Player indexes are
// contiguous in seat order.
func (s Setup) NewPlayers() []*Player {
	rng := rand.New(rand.NewSource(s.Seed))
	var players []*Player
	for seat, c := range s.Seats {
		idx := len(players)
		name := fmt.Sprintf("Player %d", seat+1)
		switch c {
		case ControllerHuman:
			players = append(players, NewPlayer(idx, name))
		case ControllerAI:
			players = append(players, NewAIPlayer(idx, name, Personalities[rng.Intn(len(Personalities))]))
		default:
			continue
		}
		players[idx].Color = AllColors()[seat%len(AllColors())]
	}
	return players
}

// NewGame generates a map and places homes, neutral temples and starting
// soldiers for setup.
func NewGame(setup Setup) (*GameState, error) {
	players := setup.NewPlayers()
	if len(players) < 2 {
		return nil, ErrTooFewPlayers
	}
	if len(players) > maps.MaxPlayers {
		return nil, ErrTooManyPlayers
	}

	m, err := maps.Generate(len(players), setup.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}

	rng := rand.New(rand.NewSource(setup.Seed + 1))
	g := NewState(m, players, setup, NewArena(setup.Seed+2))

	homes := pickHomes(m, len(players), rng)
	for p, r := range homes {
		g = g.Place(r, p, HomeSoldiers).WithTemple(Temple{Region: r})
	}

	temples := slices.Clone(homes)
	for _, r := range rng.Perm(m.Len()) {
		if len(temples) >= 2*len(players)+2 {
			break
		}
		if tooClose(m, r, temples) {
			continue
		}
		temples = append(temples, r)
		soldiers := MinNeutralSoldiers + rng.Intn(MaxNeutralSoldiers-MinNeutralSoldiers+1)
		g = g.Place(r, Neutral, soldiers).WithTemple(Temple{Region: r})
	}

	g.MovesRemaining = g.MovesPerTurn(0)
	return g, nil
}

func tooClose(m *maps.Map, r int, temples []int) bool {
	for _, t := range temples {
		if d := m.Distance(r, t); d >= 0 && d < neutralTempleSpacing {
			return true
		}
	}
	return false
}

// pickHomes picks one home per player, greedily maximising the distance to
// the closest home already chosen.
func pickHomes(m *maps.Map, players int, rng *rand.Rand) []int {
	homes := []int{rng.Intn(m.Len())}
	for len(homes) < players {
		best, bestDist := -1, -1
		for _, r := range rng.Perm(m.Len()) {
			if slices.Contains(homes, r) {
				continue
			}
			closest := -1
			for _, h := range homes {
				if d := m.Distance(r, h); closest < 0 || d < closest {
					closest = d
				}
			}
			if closest > bestDist {
				best, bestDist = r, closest
			}
		}
		homes = append(homes, best)
	}
	return homes
}
