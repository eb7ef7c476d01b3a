package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"tank-arena/internal/config"
	"tank-arena/internal/game"
	"tank-arena/internal/protocol"
	"tank-arena/internal/room"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	maxMessageSize = 4096
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// Gateway bridges WebSocket connections to the room manager. It owns the
// upgrade path, per-socket pumps, event decoding and the input rate limit.
type Gateway struct {
	manager *room.Manager
	limits  config.LimitsConfig

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter

	mu      sync.RWMutex
	clients map[string]*Client
	nextID  uint64
}

// NewGateway creates a gateway bound to a room manager. allowedOrigins is
// the websocket origin allowlist; empty allows any origin (development).
func NewGateway(manager *room.Manager, limits config.LimitsConfig, allowedOrigins []string) *Gateway {
	gw := &Gateway{
		manager:   manager,
		limits:    limits,
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		clients:   make(map[string]*Client),
	}
	gw.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if originAllowed(r.Header.Get("Origin"), allowedOrigins) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", r.Header.Get("Origin"))
			RecordConnectionRejected("origin")
			return false
		},
	}
	return gw
}

// originAllowed implements the websocket origin policy: no allowlist means
// allow everything, localhost always passes, otherwise exact match.
func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	if origin == "" {
		return false
	}
	if len(origin) >= 16 && origin[:16] == "http://localhost" {
		return true
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected sockets.
func (gw *Gateway) ClientCount() int {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return len(gw.clients)
}

// HandleWebSocket upgrades an HTTP request and runs the connection until it
// closes. Per-IP and total connection limits apply before the upgrade.
func (gw *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if gw.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !gw.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		gw.wsLimiter.Release(ip)
		return
	}

	c := &Client{
		id:   "c" + strconv.FormatUint(atomic.AddUint64(&gw.nextID, 1), 10),
		ip:   ip,
		conn: conn,
		send: make(chan []byte, gw.limits.SendBufferFrames),
		done: make(chan struct{}),
		inputLimiter: rate.NewLimiter(
			rate.Limit(gw.limits.InputsPerSec), gw.limits.InputBurst),
		gw: gw,
	}

	gw.mu.Lock()
	gw.clients[c.id] = c
	count := len(gw.clients)
	gw.mu.Unlock()
	log.Printf("📱 Client %s connected from %s (%d total)", c.id, ip, count)
	UpdateWSConnections(count)

	go c.writePump()
	c.readPump()
}

// unregister removes a closed client and tells the manager its socket died.
func (gw *Gateway) unregister(c *Client) {
	gw.mu.Lock()
	if _, ok := gw.clients[c.id]; !ok {
		gw.mu.Unlock()
		return
	}
	delete(gw.clients, c.id)
	count := len(gw.clients)
	gw.mu.Unlock()

	gw.wsLimiter.Release(c.ip)
	gw.manager.Disconnect(c.id)
	log.Printf("📱 Client %s disconnected (%d remaining)", c.id, count)
	UpdateWSConnections(count)
}

// Client is one WebSocket connection. It implements room.Conn: Send never
// blocks, frames to a slow client are dropped once its buffer fills.
type Client struct {
	id   string
	ip   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{} // closed once; send stays open so Send never panics

	inputLimiter *rate.Limiter
	gw           *Gateway
	closeOnce    sync.Once
}

// ID returns the socket id.
func (c *Client) ID() string { return c.id }

// Send marshals an envelope and queues it for the write pump. Marshaling
// happens here, not in the pump, so snapshot buffers are read immediately.
func (c *Client) Send(event string, data any) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("⚠️ marshal %s for %s: %v", event, c.id, err)
			return
		}
		raw = b
	}
	frame, err := json.Marshal(protocol.Envelope{Event: event, Data: raw})
	if err != nil {
		return
	}

	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		// Buffer full: drop the frame, the next snapshot supersedes it
		RecordFrameDropped()
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump reads frames until the connection dies, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.gw.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.sendError(protocol.ErrInvalidInput, "malformed envelope")
			continue
		}
		c.handleEvent(env)
	}
}

// writePump drains the send channel onto the socket.
func (c *Client) writePump() {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// handleEvent routes one inbound envelope.
func (c *Client) handleEvent(env protocol.Envelope) {
	switch env.Event {
	case protocol.EventCreateRoom:
		c.gw.manager.CreateRoom(c)

	case protocol.EventJoinRoom:
		var req protocol.JoinRoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError(protocol.ErrInvalidInput, "malformed join_room payload")
			return
		}
		if err := ValidateRoomCode(req.RoomID); err != nil {
			c.sendError(protocol.ErrInvalidInput, err.Error())
			return
		}
		c.gw.manager.JoinRoom(c, req.RoomID)

	case protocol.EventLeaveRoom:
		c.gw.manager.Leave(c.id)

	case protocol.EventReconnect:
		var req protocol.ReconnectRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.SessionID == "" {
			c.sendError(protocol.ErrInvalidInput, "malformed reconnect payload")
			return
		}
		c.gw.manager.Reconnect(c, req.SessionID)

	case protocol.EventPlayerInput:
		c.handleInput(env.Data)

	case protocol.EventPing:
		var req protocol.PingRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError(protocol.ErrInvalidInput, "malformed ping payload")
			return
		}
		c.Send(protocol.EventPong, protocol.Pong{
			ClientTimestamp: req.Timestamp,
			ServerTimestamp: time.Now().UnixMilli(),
		})

	case protocol.EventGameOverIn:
		var req protocol.GameOver
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError(protocol.ErrInvalidInput, "malformed game_over payload")
			return
		}
		c.gw.manager.ClientGameOver(c.id, req.Winner, req.Reason)

	default:
		c.sendError(protocol.ErrInvalidInput, "unknown event: "+env.Event)
	}
}

// handleInput validates and forwards one player_input frame.
func (c *Client) handleInput(data json.RawMessage) {
	if !c.inputLimiter.Allow() {
		// The connection stays open; the frame just never reaches the engine
		RecordInputRejected("rate_limit")
		c.sendError(protocol.ErrInvalidInput, "input rate limit exceeded")
		return
	}

	var req protocol.InputRequest
	if err := json.Unmarshal(data, &req); err != nil {
		RecordInputRejected("invalid")
		c.sendError(protocol.ErrInvalidInput, "malformed player_input payload")
		return
	}
	if err := ValidateInput(req); err != nil {
		RecordInputRejected("invalid")
		c.sendError(protocol.ErrInvalidInput, err.Error())
		return
	}

	in := game.PlayerInput{
		Moving:    req.Moving,
		Firing:    req.Firing,
		Timestamp: int64(req.Timestamp),
	}
	if req.Direction != nil {
		in.Direction = game.Direction(*req.Direction)
	}

	if !c.gw.manager.RouteInput(c.id, in) {
		RecordInputRejected("no_room")
		c.sendError(protocol.ErrUnauthorized, "no active game for this connection")
	}
}

func (c *Client) sendError(kind protocol.ErrorType, msg string) {
	c.Send(protocol.EventRoomError, protocol.RoomError{Type: kind, Message: msg})
}
