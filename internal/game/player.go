package game

import "fmt"

// PlayerColor represents a player's color.
type PlayerColor string

const (
	ColorRed    PlayerColor = "red"
	ColorBlue   PlayerColor = "blue"
	ColorYellow PlayerColor = "yellow"
	ColorPurple PlayerColor = "purple"
)

// AllColors returns the seat colors in seat order.
func AllColors() []PlayerColor {
	return []PlayerColor{ColorRed, ColorBlue, ColorYellow, ColorPurple}
}

// Controller says who makes a seat's decisions.
type Controller int

const (
	ControllerOff Controller = iota
	ControllerHuman
	ControllerAI
)

// String returns the controller name.
func (c Controller) String() string {
	switch c {
	case ControllerHuman:
		return "human"
	case ControllerAI:
		return "ai"
	default:
		return "off"
	}
}

// ParseController is the inverse of Controller.String.
func ParseController(s string) (Controller, error) {
	switch s {
	case "off", "":
		return ControllerOff, nil
	case "human":
		return ControllerHuman, nil
	case "ai":
		return ControllerAI, nil
	}
	return ControllerOff, fmt.Errorf("%w: controller %q", ErrInvalidSetup, s)
}

// Personality tunes AI economic decisions.
type Personality struct {
	Name             string        `json:"name"`
	SoldierEagerness float64       `json:"soldierEagerness"`
	Upgrades         []UpgradeKind `json:"upgrades"` // preference queue, repeats mean further levels
}

// Personalities are the AI temperaments handed out at setup.
var Personalities = []Personality{
	{
		Name:             "zealot",
		SoldierEagerness: 1.0,
		Upgrades:         []UpgradeKind{UpgradeFire, UpgradeFire, UpgradeAir, UpgradeEarth},
	},
	{
		Name:             "merchant",
		SoldierEagerness: 0.5,
		Upgrades:         []UpgradeKind{UpgradeWater, UpgradeWater, UpgradeEarth, UpgradeAir},
	},
	{
		Name:             "guardian",
		SoldierEagerness: 0.75,
		Upgrades:         []UpgradeKind{UpgradeEarth, UpgradeWater, UpgradeEarth, UpgradeFire},
	},
	{
		Name:             "nomad",
		SoldierEagerness: 0.8,
		Upgrades:         []UpgradeKind{UpgradeAir, UpgradeWater, UpgradeAir, UpgradeFire},
	},
}

// Player represents a seat in the game. Players are created at setup and
// shared by every state of the run.
type Player struct {
	Index       int          `json:"index"`
	Name        string       `json:"name"`
	Color       PlayerColor  `json:"color"`
	Controller  Controller   `json:"controller"`
	Personality *Personality `json:"personality,omitempty"`
}

// NewPlayer creates a human player.
func NewPlayer(index int, name string) *Player {
	return &Player{
		Index:      index,
		Name:       name,
		Color:      AllColors()[index%len(AllColors())],
		Controller: ControllerHuman,
	}
}

// NewAIPlayer creates an AI player.
func NewAIPlayer(index int, name string, personality Personality) *Player {
	p := NewPlayer(index, name)
	p.Controller = ControllerAI
	p.Personality = &personality
	return p
}

// IsAI reports whether the AI plays this seat.
func (p *Player) IsAI() bool {
	return p.Controller == ControllerAI
}

func (p *Player) String() string {
	return p.Name
}
