package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"compact-conflict/internal/database"
	"compact-conflict/internal/game"
	"compact-conflict/internal/protocol"
	"compact-conflict/internal/snapshot"
	"compact-conflict/pkg/maps"
)

type createGameRequest struct {
	Players    []string `json:"players"`
	Difficulty string   `json:"difficulty"`
	TurnLimit  *int     `json:"turnLimit"`
	Seed       int64    `json:"seed"`
	Cheat      float64  `json:"cheat"`
}

type gameResponse struct {
	Game  *database.Game `json:"game"`
	Live  bool           `json:"live"`
	Seq   int            `json:"seq,omitempty"`
	State *game.View     `json:"state,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Schema  int    `json:"schema"`
	Running int    `json:"running"`
}

type moveResponse struct {
	Seq    int             `json:"seq"`
	Turn   int             `json:"turn"`
	Player int             `json:"player"`
	Kind   string          `json:"kind"`
	Move   json.RawMessage `json:"move"`
	Battle json.RawMessage `json:"battle,omitempty"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotRunning), errors.Is(err, ErrTooManyMatches):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidSetup), errors.Is(err, game.ErrTooFewPlayers),
		errors.Is(err, game.ErrTooManyPlayers), errors.Is(err, ErrHumanSeat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// defaultSetup is the stored setup when one was saved, else the configured one.
func (s *Server) defaultSetup() (game.Setup, error) {
	prefs, err := s.db.Preferences()
	if err != nil {
		return s.cfg.Setup, err
	}
	if _, ok := prefs["level"]; !ok {
		return s.cfg.Setup, nil
	}
	return game.ParseSetup(prefs)
}

func (req createGameRequest) apply(setup game.Setup) (game.Setup, error) {
	if len(req.Players) > 0 {
		if len(req.Players) > maps.MaxPlayers {
			return setup, game.ErrTooManyPlayers
		}
		setup.Seats = make([]game.Controller, len(req.Players))
		for i, raw := range req.Players {
			c, err := game.ParseController(raw)
			if err != nil {
				return setup, err
			}
			setup.Seats[i] = c
		}
	}
	if req.Difficulty != "" {
		d, err := game.ParseDifficulty(req.Difficulty)
		if err != nil {
			return setup, err
		}
		setup.Difficulty = d
	}
	if req.TurnLimit != nil {
		if *req.TurnLimit < 0 {
			return setup, game.ErrInvalidSetup
		}
		setup.TurnLimit = *req.TurnLimit
	}
	if req.Seed != 0 {
		setup.Seed = req.Seed
	}
	if req.Cheat > 0 {
		setup.Cheat = req.Cheat
	}
	return setup, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	version, err := s.db.SchemaVersion()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Schema: version, Running: s.matches.Running()})
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	setup, err := s.defaultSetup()
	if err != nil {
		abort(c, err)
		return
	}
	// hosted matches pick their own seed unless asked for one
	setup.Seed = 0
	if setup, err = req.apply(setup); err != nil {
		abort(c, err)
		return
	}

	rec, err := s.matches.Start(setup)
	if err != nil {
		abort(c, err)
		return
	}
	log.Info().Str("game", rec.ID).Int("players", rec.PlayerCount).Msg("Match created")
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleListGames(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	games, err := s.db.ListGames(limit)
	if err != nil {
		abort(c, err)
		return
	}
	if games == nil {
		games = []*database.GameInfo{}
	}
	c.JSON(http.StatusOK, games)
}

func (s *Server) handleGetGame(c *gin.Context) {
	id := c.Param("id")
	rec, err := s.db.GetGame(id)
	if err != nil {
		abort(c, err)
		return
	}

	resp := gameResponse{Game: rec}
	if g, seq, ok := s.matches.Live(id); ok {
		v := g.View()
		resp.Live, resp.Seq, resp.State = true, seq, &v
	} else if g, err := s.finalState(rec); err == nil {
		v := g.View()
		resp.State = &v
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStopGame(c *gin.Context) {
	if err := s.matches.Stop(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetMoves(c *gin.Context) {
	id := c.Param("id")
	after, err := strconv.Atoi(c.DefaultQuery("after", "0"))
	if err != nil || after < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
		return
	}
	if _, err := s.db.GetGame(id); err != nil {
		abort(c, err)
		return
	}
	moves, err := s.db.GetMovesSince(id, after)
	if err != nil {
		abort(c, err)
		return
	}

	out := make([]moveResponse, len(moves))
	for i, m := range moves {
		out[i] = moveResponse{Seq: m.Seq, Turn: m.Turn, Player: m.Player, Kind: m.Kind, Move: json.RawMessage(m.MoveJSON)}
		if m.BattleJSON.Valid {
			out[i].Battle = json.RawMessage(m.BattleJSON.String)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSetup(c *gin.Context) {
	setup, err := s.defaultSetup()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, setup.Values())
}

func (s *Server) handleSaveSetup(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	setup, err := game.ParseSetup(values)
	if err != nil {
		abort(c, err)
		return
	}
	if err := s.db.SaveSetup(setup); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, setup.Values())
}

// finalState loads the last state of a match that is no longer running:
// from its snapshot when one was written, else by replaying its moves.
func (s *Server) finalState(rec *database.Game) (*game.GameState, error) {
	if rec.SnapshotPath != "" {
		snap, err := snapshot.ReadSnapshot(rec.SnapshotPath)
		if err == nil {
			return snap.Restore()
		}
		log.Warn().Err(err).Str("game", rec.ID).Msg("Snapshot unreadable, replaying moves")
	}
	start, err := game.NewGame(rec.Setup)
	if err != nil {
		return nil, err
	}
	return s.db.Replay(rec.ID, start)
}

// mapData describes the board of g, regenerating the geometry of boards
// restored from a snapshot.
func mapData(g *game.GameState) protocol.MapData {
	if g.Map.Width == 0 {
		if m, err := maps.Generate(len(g.Players), g.Setup.Seed); err == nil && m.Len() == g.Map.Len() {
			return protocol.NewMapData(m)
		}
	}
	return protocol.NewMapData(g.Map)
}
