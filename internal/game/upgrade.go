package game

// UpgradeKind identifies an entry of the upgrade catalogue.
type UpgradeKind int

const (
	UpgradeNone UpgradeKind = iota
	UpgradeSoldier
	UpgradeWater
	UpgradeFire
	UpgradeAir
	UpgradeEarth
	UpgradeRebuild
)

// String returns the upgrade name.
func (k UpgradeKind) String() string {
	switch k {
	case UpgradeSoldier:
		return "Soldier"
	case UpgradeWater:
		return "Water"
	case UpgradeFire:
		return "Fire"
	case UpgradeAir:
		return "Air"
	case UpgradeEarth:
		return "Earth"
	case UpgradeRebuild:
		return "Rebuild"
	default:
		return "None"
	}
}

// ParseUpgrade is the inverse of UpgradeKind.String.
func ParseUpgrade(s string) (UpgradeKind, bool) {
	for k := UpgradeNone; k <= UpgradeRebuild; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return UpgradeNone, false
}

// Upgrade is a catalogue entry. Entries are shared by every state of a run
// and must never be modified.
type Upgrade struct {
	Kind        UpgradeKind
	Name        string
	Description string
	Costs       []int // faith per level
	Effects     []int // effect magnitude per level
}

// Levels returns the number of levels the upgrade can reach.
func (u *Upgrade) Levels() int {
	return len(u.Costs)
}

// Cost returns the faith needed to reach level, or -1 past the table.
func (u *Upgrade) Cost(level int) int {
	if level < 0 || level >= len(u.Costs) {
		return -1
	}
	return u.Costs[level]
}

// Effect returns the effect magnitude at level, 0 past the table.
func (u *Upgrade) Effect(level int) int {
	if level < 0 || level >= len(u.Effects) {
		return 0
	}
	return u.Effects[level]
}

// IsElemental reports whether the upgrade sits on a temple with levels.
func (k UpgradeKind) IsElemental() bool {
	return k >= UpgradeWater && k <= UpgradeEarth
}

const maxSoldierPurchases = 100

var catalogue = [...]*Upgrade{
	UpgradeNone: {Kind: UpgradeNone, Name: "Temple"},
	UpgradeSoldier: {
		Kind:        UpgradeSoldier,
		Name:        "Extra soldier",
		Description: "Buy one soldier; each purchase this turn costs more.",
		Costs:       soldierCosts(),
	},
	UpgradeWater: {
		Kind:        UpgradeWater,
		Name:        "Water",
		Description: "Income: +X% faith per turn.",
		Costs:       []int{15, 25},
		Effects:     []int{20, 40},
	},
	UpgradeFire: {
		Kind:        UpgradeFire,
		Name:        "Fire",
		Description: "Attack: X invincible soldier(s).",
		Costs:       []int{20, 30},
		Effects:     []int{1, 2},
	},
	UpgradeAir: {
		Kind:        UpgradeAir,
		Name:        "Air",
		Description: "Move: X extra move(s) per turn.",
		Costs:       []int{25, 25},
		Effects:     []int{1, 2},
	},
	UpgradeEarth: {
		Kind:        UpgradeEarth,
		Name:        "Earth",
		Description: "Defense: always kill X invader(s).",
		Costs:       []int{30, 45},
		Effects:     []int{1, 2},
	},
	UpgradeRebuild: {
		Kind:        UpgradeRebuild,
		Name:        "Rebuild temple",
		Description: "Clear the temple to choose a different upgrade.",
		Costs:       []int{0},
	},
}

func soldierCosts() []int {
	costs := make([]int, maxSoldierPurchases)
	for n := range costs {
		costs[n] = 8 + 4*n
	}
	return costs
}

// Upgrade returns the catalogue entry for k, or nil for unknown kinds.
func (k UpgradeKind) Upgrade() *Upgrade {
	if k < 0 || int(k) >= len(catalogue) {
		return nil
	}
	return catalogue[k]
}

// Catalogue returns every buildable upgrade in display order.
func Catalogue() []*Upgrade {
	return []*Upgrade{
		catalogue[UpgradeSoldier],
		catalogue[UpgradeWater],
		catalogue[UpgradeFire],
		catalogue[UpgradeAir],
		catalogue[UpgradeEarth],
		catalogue[UpgradeRebuild],
	}
}

// SoldierPrice returns the price of the n-th soldier bought in a turn
// (0-based). Prices never go down within a turn.
func SoldierPrice(n int) int {
	costs := catalogue[UpgradeSoldier].Costs
	if n >= len(costs) {
		return costs[len(costs)-1] + 4*(n-len(costs)+1)
	}
	return costs[n]
}
