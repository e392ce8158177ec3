package protocol

import (
	"encoding/json"

	"compact-conflict/internal/game"
	"compact-conflict/pkg/maps"
)

// ==================== System Payloads ====================

// WelcomePayload is sent when a spectator connects.
type WelcomePayload struct {
	ServerVersion string `json:"server_version"`
}

// SubscribePayload switches the connection to another match.
type SubscribePayload struct {
	GameID string `json:"game_id"`
}

// ==================== Match Payloads ====================

// MapData is the static board of a match.
type MapData struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Regions []RegionData `json:"regions"`
}

// RegionData is one region's geometry and adjacency.
type RegionData struct {
	Index     int          `json:"index"`
	Bounds    maps.Rect    `json:"bounds"`
	Border    []maps.Point `json:"border,omitempty"`
	Neighbors []int        `json:"neighbors"`
}

// NewMapData copies the parts of m a spectator needs to draw it.
func NewMapData(m *maps.Map) MapData {
	d := MapData{Width: m.Width, Height: m.Height, Regions: make([]RegionData, m.Len())}
	for i := range d.Regions {
		r := m.Region(i)
		d.Regions[i] = RegionData{Index: i, Bounds: r.Bounds, Border: r.Border, Neighbors: r.Neighbors}
	}
	return d
}

// MatchStartedPayload describes a match to a new spectator.
type MatchStartedPayload struct {
	GameID  string         `json:"game_id"`
	Setup   game.Setup     `json:"setup"`
	Players []*game.Player `json:"players"`
	Map     MapData        `json:"map"`
}

// GameStatePayload carries the full observable state after a move.
type GameStatePayload struct {
	GameID string    `json:"game_id"`
	Seq    int       `json:"seq"`
	State  game.View `json:"state"`
}

// MoveAppliedPayload carries one move as it was applied.
type MoveAppliedPayload struct {
	GameID string          `json:"game_id"`
	Seq    int             `json:"seq"`
	Turn   int             `json:"turn"`
	Player int             `json:"player"`
	Kind   string          `json:"kind"`
	Move   json.RawMessage `json:"move"`
}

// BattlePayload carries a battle replay.
type BattlePayload struct {
	GameID string       `json:"game_id"`
	Seq    int          `json:"seq"`
	Battle *game.Battle `json:"battle"`
}

// GameEndedPayload is sent once when a match finishes or is aborted.
type GameEndedPayload struct {
	GameID  string       `json:"game_id"`
	Turn    int          `json:"turn"`
	Result  *game.Result `json:"result,omitempty"`
	Aborted bool         `json:"aborted,omitempty"`
}
