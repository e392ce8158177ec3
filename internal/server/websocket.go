package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"compact-conflict/internal/database"
	"compact-conflict/internal/protocol"
)

// handleWebSocket upgrades a spectator connection for the match named by the
// game query parameter.
func (s *Server) handleWebSocket(c *gin.Context) {
	gameID := c.Query("game")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing game"})
		return
	}
	greeting, err := s.greeting(gameID)
	if err != nil {
		abort(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(s.hub, conn)
	welcome, _ := protocol.NewMessage(protocol.TypeWelcome, protocol.WelcomePayload{ServerVersion: serverVersion})
	s.hub.Join(client, gameID, append([]*protocol.Message{welcome}, greeting...)...)
	log.Debug().Str("game", gameID).Int("spectators", s.hub.Spectators(gameID)).Msg("Spectator joined")

	go client.WritePump()
	go client.ReadPump(s.handleMessage)
}

// greeting builds the messages that bring a new spectator up to date.
func (s *Server) greeting(gameID string) ([]*protocol.Message, error) {
	g, seq, live := s.matches.Live(gameID)
	if !live {
		rec, err := s.db.GetGame(gameID)
		if err != nil {
			return nil, err
		}
		if g, err = s.finalState(rec); err != nil {
			return nil, err
		}
		moves, err := s.db.GetMoves(gameID)
		if err != nil {
			return nil, err
		}
		seq = len(moves)
	}

	var out []*protocol.Message
	add := func(t protocol.MessageType, payload interface{}) error {
		msg, err := protocol.NewMessage(t, payload)
		if err != nil {
			return err
		}
		out = append(out, msg)
		return nil
	}

	if err := add(protocol.TypeMatchStarted, protocol.MatchStartedPayload{
		GameID:  gameID,
		Setup:   g.Setup,
		Players: g.Players,
		Map:     mapData(g),
	}); err != nil {
		return nil, err
	}
	if err := add(protocol.TypeGameState, protocol.GameStatePayload{GameID: gameID, Seq: seq, State: g.View()}); err != nil {
		return nil, err
	}
	if !live {
		err := add(protocol.TypeGameEnded, protocol.GameEndedPayload{
			GameID:  gameID,
			Turn:    g.Turn,
			Result:  g.Result,
			Aborted: g.Result == nil,
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// handleMessage routes spectator messages.
func (s *Server) handleMessage(client *Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePing:
		s.reply(client, msg, protocol.TypePong, struct{}{})

	case protocol.TypeSubscribe:
		var p protocol.SubscribePayload
		if err := msg.ParsePayload(&p); err != nil || p.GameID == "" {
			s.replyError(client, msg, protocol.ErrCodeInvalidMessage, "subscribe needs a game_id")
			return
		}
		greeting, err := s.greeting(p.GameID)
		if errors.Is(err, database.ErrGameNotFound) {
			s.replyError(client, msg, protocol.ErrCodeGameNotFound, err.Error())
			return
		}
		if err != nil {
			s.replyError(client, msg, protocol.ErrCodeInternalError, err.Error())
			return
		}
		s.hub.Join(client, p.GameID, greeting...)

	default:
		s.replyError(client, msg, protocol.ErrCodeInvalidMessage, "unknown message type")
	}
}

func (s *Server) reply(client *Client, req *protocol.Message, t protocol.MessageType, payload interface{}) {
	msg, err := protocol.NewMessage(t, payload)
	if err != nil {
		return
	}
	msg.ID = req.ID
	s.hub.Send(client, msg)
}

func (s *Server) replyError(client *Client, req *protocol.Message, code protocol.ErrorCode, text string) {
	s.reply(client, req, protocol.TypeError, protocol.ErrorPayload{Code: code, Message: text})
}
