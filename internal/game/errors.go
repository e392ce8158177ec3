package game

import "errors"

// Game errors
var (
	ErrInvalidRegion     = errors.New("invalid region index")
	ErrUnknownMove       = errors.New("unknown move variant")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")
	ErrNotOwner          = errors.New("region not owned by current player")
	ErrNotAdjacent       = errors.New("regions are not adjacent")
	ErrNoMovesLeft       = errors.New("no moves remaining this turn")
	ErrRegionLocked      = errors.New("region was conquered this turn")
	ErrInvalidCount      = errors.New("invalid soldier count")
	ErrInsufficientFaith = errors.New("insufficient faith")
	ErrNoTemple          = errors.New("no temple in region")
	ErrMaxLevel          = errors.New("upgrade already at maximum level")
	ErrBattleMismatch    = errors.New("battle record does not match move")
	ErrGameOver          = errors.New("game is over")
	ErrTooFewPlayers     = errors.New("need at least 2 players")
	ErrTooManyPlayers    = errors.New("too many players")
	ErrInvalidSetup      = errors.New("invalid setup value")
	ErrInvalidView       = errors.New("view does not fit map")
)
