package game

import (
	"encoding/json"
	"fmt"

	"compact-conflict/pkg/maps"
)

// Move is one action taken by the current player. The variants are
// ArmyMove, BuildMove and EndMove.
type Move interface {
	Kind() string
}

// ArmyMove sends Count soldiers from Source to the adjacent Destination.
// Battle optionally carries a pre-resolved fight that Apply replays
// instead of rolling a new one.
type ArmyMove struct {
	Source      int     `json:"source"`
	Destination int     `json:"destination"`
	Count       int     `json:"count"`
	Battle      *Battle `json:"battle,omitempty"`
}

// BuildMove buys an upgrade at the temple in region Temple.
type BuildMove struct {
	Upgrade UpgradeKind `json:"upgrade"`
	Temple  int         `json:"temple"`
}

// EndMove ends the current player's turn.
type EndMove struct{}

func (ArmyMove) Kind() string  { return "army" }
func (BuildMove) Kind() string { return "build" }
func (EndMove) Kind() string   { return "end" }

// NewArmyMove creates an army move, checking both region indices exist.
func NewArmyMove(m *maps.Map, source, destination, count int) (ArmyMove, error) {
	if !m.Valid(source) {
		return ArmyMove{}, fmt.Errorf("%w: source %d", ErrInvalidRegion, source)
	}
	if !m.Valid(destination) {
		return ArmyMove{}, fmt.Errorf("%w: destination %d", ErrInvalidRegion, destination)
	}
	return ArmyMove{Source: source, Destination: destination, Count: count}, nil
}

func (m ArmyMove) String() string {
	return fmt.Sprintf("move %d from %d to %d", m.Count, m.Source, m.Destination)
}

func (m BuildMove) String() string {
	return fmt.Sprintf("build %s at %d", m.Upgrade, m.Temple)
}

func (EndMove) String() string {
	return "end turn"
}

// moveRecord is the wire form of a move.
type moveRecord struct {
	Kind        string      `json:"kind"`
	Source      int         `json:"source,omitempty"`
	Destination int         `json:"destination,omitempty"`
	Count       int         `json:"count,omitempty"`
	Upgrade     UpgradeKind `json:"upgrade,omitempty"`
	Temple      int         `json:"temple,omitempty"`
	Battle      *Battle     `json:"battle,omitempty"`
}

// EncodeMove serialises a move with its kind tag.
func EncodeMove(m Move) ([]byte, error) {
	rec := moveRecord{Kind: m.Kind()}
	switch v := m.(type) {
	case ArmyMove:
		rec.Source, rec.Destination, rec.Count, rec.Battle = v.Source, v.Destination, v.Count, v.Battle
	case BuildMove:
		rec.Upgrade, rec.Temple = v.Upgrade, v.Temple
	case EndMove:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMove, m)
	}
	return json.Marshal(rec)
}

// DecodeMove parses a move written by EncodeMove.
func DecodeMove(data []byte) (Move, error) {
	var rec moveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	switch rec.Kind {
	case "army":
		return ArmyMove{Source: rec.Source, Destination: rec.Destination, Count: rec.Count, Battle: rec.Battle}, nil
	case "build":
		return BuildMove{Upgrade: rec.Upgrade, Temple: rec.Temple}, nil
	case "end":
		return EndMove{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMove, rec.Kind)
}
