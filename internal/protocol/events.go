// Package protocol defines the wire-level contract between server and
// clients: the event envelope, every event name and payload shape, and the
// machine-readable error kinds.
package protocol

import "encoding/json"

// Envelope wraps every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names (client -> server).
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventReconnect   = "reconnect"
	EventPlayerInput = "player_input"
	EventPing        = "ping"
	EventGameOverIn  = "game_over" // client-reported termination hint
)

// Outbound event names (server -> client).
const (
	EventRoomCreated          = "room_created"
	EventRoomJoined           = "room_joined"
	EventRoomError            = "room_error"
	EventPlayerJoined         = "player_joined"
	EventPlayerLeft           = "player_left"
	EventGameStart            = "game_start"
	EventGameStateInit        = "game_state_init"
	EventStateSync            = "state_sync"
	EventMapChanges           = "map_changes"
	EventPong                 = "pong"
	EventOpponentDisconnected = "opponent_disconnected"
	EventOpponentReconnected  = "opponent_reconnected"
	EventReconnectSuccess     = "reconnect_success"
	EventReconnectFailed      = "reconnect_failed"
	EventGameOver             = "game_over"
)

// ErrorType is a machine-readable error kind.
type ErrorType string

const (
	ErrRoomNotFound ErrorType = "room_not_found"
	ErrRoomFull     ErrorType = "room_full"
	ErrInvalidInput ErrorType = "invalid_input"
	ErrUnauthorized ErrorType = "unauthorized"
	ErrServerError  ErrorType = "server_error"
)

// JoinRoomRequest is the join_room payload.
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// ReconnectRequest is the reconnect payload.
type ReconnectRequest struct {
	SessionID string `json:"sessionId"`
}

// InputRequest is the player_input payload. Direction may be absent,
// meaning "keep current facing".
type InputRequest struct {
	Type      string  `json:"type"` // must be "state"
	Direction *string `json:"direction,omitempty"`
	Moving    bool    `json:"moving"`
	Firing    bool    `json:"firing"`
	Timestamp float64 `json:"timestamp"`
}

// PingRequest is the ping payload.
type PingRequest struct {
	Timestamp float64 `json:"timestamp"`
}

// RoomCreated is sent to the host after create_room.
type RoomCreated struct {
	RoomID    string `json:"roomId"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

// RoomJoined is sent to the guest after join_room.
type RoomJoined struct {
	RoomID    string `json:"roomId"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

// RoomError carries a machine-readable kind plus a human string.
type RoomError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// PlayerJoined notifies the peer that the other slot filled.
type PlayerJoined struct {
	Role string `json:"role"`
}

// GameStart is emitted when both slots are filled and the engine starts.
type GameStart struct {
	Timestamp int64 `json:"timestamp"`
}

// GameStateInit carries the immutable per-match setup.
type GameStateInit struct {
	Seed           int64      `json:"seed"`
	MapID          string     `json:"mapId"`
	HostPosition   [2]float64 `json:"hostPosition"`
	GuestPosition  [2]float64 `json:"guestPosition"`
	HostTankColor  string     `json:"hostTankColor"`
	GuestTankColor string     `json:"guestTankColor"`
	Timestamp      int64      `json:"timestamp"`
}

// MapChanges is the optional incremental terrain channel, emitted only on
// ticks where destruction occurred.
type MapChanges struct {
	BricksDestroyed []int `json:"bricksDestroyed"`
	SteelsDestroyed []int `json:"steelsDestroyed"`
}

// Pong answers ping with both clocks so clients can compute RTT.
type Pong struct {
	ClientTimestamp float64 `json:"clientTimestamp"`
	ServerTimestamp int64   `json:"serverTimestamp"`
}

// ReconnectSuccess is sent to a reconnecting client on a session match.
type ReconnectSuccess struct {
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
}

// GameOver announces the end of a match.
type GameOver struct {
	Winner    string `json:"winner"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// Client reconciliation contract. The server never teleports tanks except
// on death/respawn: clients keep predictions within PredictionThreshold
// units of the authoritative position and converge beyond it using
// InterpolationFactor per received snapshot.
const (
	PredictionThreshold = 2.0
	InterpolationFactor = 0.3
)
