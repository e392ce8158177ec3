package game

// Temple is a building in a region. Temples are never destroyed; only their
// upgrade changes. Values are replaced, never modified, once in a state.
type Temple struct {
	Region  int         `json:"region"`
	Upgrade UpgradeKind `json:"upgrade,omitempty"`
	Level   int         `json:"level"`
}

// Bare reports whether the temple has no elemental upgrade.
func (t *Temple) Bare() bool {
	return t.Upgrade == UpgradeNone
}

// Effect returns the effect magnitude of the temple's current level.
func (t *Temple) Effect() int {
	if t.Bare() {
		return 0
	}
	return t.Upgrade.Upgrade().Effect(t.Level)
}

// NextCost returns the faith needed to build kind on this temple, or -1 if
// the upgrade is already maxed out.
func (t *Temple) NextCost(kind UpgradeKind) int {
	u := kind.Upgrade()
	if u == nil {
		return -1
	}
	if t.Upgrade == kind {
		return u.Cost(t.Level + 1)
	}
	return u.Cost(0)
}

// cleared returns the temple with its upgrade removed.
func (t *Temple) cleared() *Temple {
	return &Temple{Region: t.Region}
}
