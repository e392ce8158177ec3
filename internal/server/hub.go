package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"compact-conflict/internal/game"
	"compact-conflict/internal/match"
	"compact-conflict/internal/protocol"
)

const serverVersion = "0.1.0"

// Hub tracks spectators per match and fans match events out to them. It
// implements match.Observer.
type Hub struct {
	mu      sync.RWMutex
	games   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		games:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Join attaches client to gameID, leaving any previous match. greeting is
// queued before any later broadcast reaches the client.
func (h *Hub) Join(client *Client, gameID string, greeting ...*protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return
	}
	h.clients[client] = struct{}{}
	if old := client.GameID; old != "" {
		delete(h.games[old], client)
	}
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*Client]struct{})
	}
	h.games[gameID][client] = struct{}{}
	client.GameID = gameID

	for _, msg := range greeting {
		if !client.trySend(msg) {
			h.removeLocked(client)
			return
		}
	}
}

// Unregister removes a client from the hub and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if client.closed {
		return
	}
	client.closed = true
	delete(h.clients, client)
	if clients, ok := h.games[client.GameID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.games, client.GameID)
		}
	}
	close(client.send)
}

// Send queues msg for a single client.
func (h *Hub) Send(client *Client, msg *protocol.Message) {
	h.mu.RLock()
	ok := client.trySend(msg)
	h.mu.RUnlock()
	if !ok {
		h.Unregister(client)
	}
}

// Spectators returns the number of clients watching gameID.
func (h *Hub) Spectators(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// Broadcast sends msg to every client watching gameID. Clients whose queue
// is full are dropped.
func (h *Hub) Broadcast(gameID string, msg *protocol.Message) {
	var slow []*Client
	h.mu.RLock()
	for client := range h.games[gameID] {
		if !client.trySend(msg) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Warn().Str("game", gameID).Msg("Dropping slow spectator")
		h.Unregister(client)
	}
}

func (h *Hub) notify(gameID string, msgType protocol.MessageType, payload interface{}) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(msgType)).Msg("Failed to build message")
		return
	}
	h.Broadcast(gameID, msg)
}

// MoveApplied streams the move, its battle and the resulting state.
func (h *Hub) MoveApplied(ev match.Event) {
	gameID := ev.GameID
	data, err := game.EncodeMove(ev.Move)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode move")
		return
	}
	h.notify(gameID, protocol.TypeMoveApplied, protocol.MoveAppliedPayload{
		GameID: gameID,
		Seq:    ev.Seq,
		Turn:   ev.Turn,
		Player: ev.Player,
		Kind:   ev.Move.Kind(),
		Move:   json.RawMessage(data),
	})
	if ev.Battle != nil {
		h.notify(gameID, protocol.TypeBattle, protocol.BattlePayload{GameID: gameID, Seq: ev.Seq, Battle: ev.Battle})
	}
	h.notify(gameID, protocol.TypeGameState, protocol.GameStatePayload{GameID: gameID, Seq: ev.Seq, State: ev.State.View()})
}

// MatchEnded tells spectators the match is over.
func (h *Hub) MatchEnded(gameID string, g *game.GameState) {
	h.notify(gameID, protocol.TypeGameEnded, protocol.GameEndedPayload{
		GameID:  gameID,
		Turn:    g.Turn,
		Result:  g.Result,
		Aborted: g.Result == nil,
	})
}

// Client represents a connected WebSocket spectator.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *protocol.Message

	// guarded by hub.mu
	GameID string
	closed bool
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueue      = 256
)

// NewClient creates a new client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *protocol.Message, sendQueue),
	}
}

// trySend queues msg without blocking. Callers hold hub.mu.
func (c *Client) trySend(msg *protocol.Message) bool {
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump reads client messages until the connection drops. handle is
// called for every well-formed message.
func (c *Client) ReadPump(handle func(*Client, *protocol.Message)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket error")
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("Invalid message")
			continue
		}
		handle(c, &msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
