package room

import (
	"time"

	"tank-arena/internal/game"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Conn is the transport connection as seen by the room layer. The gateway
// implements it; Send must never block (slow clients drop snapshots).
type Conn interface {
	ID() string
	Send(event string, data any)
}

// PlayerSlot binds one of the two room positions to a connection and a
// session. The session survives a connection drop; Conn is nil while the
// player is disconnected.
type PlayerSlot struct {
	Conn      Conn
	SessionID string
	Connected bool
	JoinedAt  time.Time

	reconnectTimer *time.Timer
}

// Room pairs a host with a guest and, once playing, owns the engine and
// its broadcast loop.
type Room struct {
	ID     string
	Status Status

	Host  *PlayerSlot
	Guest *PlayerSlot

	Engine *game.Engine

	CreatedAt time.Time
	StartedAt time.Time

	broadcastStop chan struct{}
}

func (r *Room) slot(s game.Slot) *PlayerSlot {
	if s == game.SlotHost {
		return r.Host
	}
	return r.Guest
}

// peer returns the other slot.
func (r *Room) peer(s game.Slot) *PlayerSlot {
	if s == game.SlotHost {
		return r.Guest
	}
	return r.Host
}

// liveConn returns a slot's connection if it is currently connected.
// Callers must hold the manager lock; the returned Conn may be used after
// releasing it (Conn.Send is non-blocking and safe after unbind).
func liveConn(s *PlayerSlot) Conn {
	if s != nil && s.Connected && s.Conn != nil {
		return s.Conn
	}
	return nil
}

// send delivers an event to a possibly-nil connection.
func send(c Conn, event string, data any) {
	if c != nil {
		c.Send(event, data)
	}
}

// connectedCount returns how many slots hold a live connection.
func (r *Room) connectedCount() int {
	n := 0
	for _, s := range []*PlayerSlot{r.Host, r.Guest} {
		if s != nil && s.Connected {
			n++
		}
	}
	return n
}
