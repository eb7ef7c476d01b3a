package room

import (
	"log"
	"sync"
	"time"

	"tank-arena/internal/game"
	"tank-arena/internal/protocol"
)

// Config tunes the room plane.
type Config struct {
	TickRate          int
	BroadcastInterval time.Duration
	ReconnectTimeout  time.Duration
	Stage             string // empty means the engine's default stage
	MapID             string
}

// DefaultConfig returns production defaults: 60 TPS simulation, ~60 Hz
// snapshot fan-out, 30 s reconnect grace.
func DefaultConfig() Config {
	return Config{
		TickRate:          60,
		BroadcastInterval: 16 * time.Millisecond,
		ReconnectTimeout:  30 * time.Second,
		MapID:             "stage-1",
	}
}

type roomRef struct {
	roomID string
	slot   game.Slot
}

// Manager owns every room: creation, pairing, session issuance, the
// disconnect grace window, and per-room snapshot fan-out.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	rooms    map[string]*Room
	conns    map[string]roomRef // socket id -> slot
	sessions map[string]roomRef // session id -> slot

	// OnCountsChanged, when set, observes (rooms, connected players)
	// after every membership change. Used for metrics gauges.
	OnCountsChanged func(rooms, players int)

	// OnTick is forwarded to every engine for tick-duration metrics.
	OnTick func(time.Duration)
}

// NewManager creates an empty room manager.
func NewManager(cfg Config) *Manager {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = 16 * time.Millisecond
	}
	if cfg.ReconnectTimeout <= 0 {
		cfg.ReconnectTimeout = 30 * time.Second
	}
	return &Manager{
		cfg:      cfg,
		rooms:    make(map[string]*Room),
		conns:    make(map[string]roomRef),
		sessions: make(map[string]roomRef),
	}
}

// CreateRoom allocates a room code, binds conn to the host slot and
// answers with room_created.
func (m *Manager) CreateRoom(conn Conn) {
	m.mu.Lock()
	code := newRoomCode()
	for _, taken := m.rooms[code]; taken; _, taken = m.rooms[code] {
		code = newRoomCode()
	}

	sessionID := newSessionID()
	r := &Room{
		ID:        code,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		Host: &PlayerSlot{
			Conn:      conn,
			SessionID: sessionID,
			Connected: true,
			JoinedAt:  time.Now(),
		},
	}
	m.rooms[code] = r
	m.conns[conn.ID()] = roomRef{roomID: code, slot: game.SlotHost}
	m.sessions[sessionID] = roomRef{roomID: code, slot: game.SlotHost}
	m.mu.Unlock()

	log.Printf("🏠 room %s created by %s", code, conn.ID())
	conn.Send(protocol.EventRoomCreated, protocol.RoomCreated{
		RoomID:    code,
		SessionID: sessionID,
		Role:      game.SlotHost.String(),
	})
	m.notifyCounts()
}

// JoinRoom binds conn to the guest slot of an existing room. On the second
// arrival the room transitions to playing: the engine starts, both clients
// get game_start and game_state_init, and the broadcast loop begins.
func (m *Manager) JoinRoom(conn Conn, roomID string) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		conn.Send(protocol.EventRoomError, protocol.RoomError{
			Type:    protocol.ErrRoomNotFound,
			Message: "room " + roomID + " does not exist",
		})
		return
	}
	if r.Status != StatusWaiting || r.Guest != nil {
		m.mu.Unlock()
		conn.Send(protocol.EventRoomError, protocol.RoomError{
			Type:    protocol.ErrRoomFull,
			Message: "room " + roomID + " is full",
		})
		return
	}

	sessionID := newSessionID()
	r.Guest = &PlayerSlot{
		Conn:      conn,
		SessionID: sessionID,
		Connected: true,
		JoinedAt:  time.Now(),
	}
	m.conns[conn.ID()] = roomRef{roomID: roomID, slot: game.SlotGuest}
	m.sessions[sessionID] = roomRef{roomID: roomID, slot: game.SlotGuest}

	engine, err := game.NewEngine(game.EngineConfig{
		RoomID:   roomID,
		TickRate: m.cfg.TickRate,
		Stage:    m.cfg.Stage,
		OnGameOver: func(over game.GameOver) {
			m.handleGameOver(roomID, over)
		},
		OnTick: m.OnTick,
	})
	if err != nil {
		// A broken stage descriptor is a deployment bug, not a client error.
		r.Guest = nil
		delete(m.conns, conn.ID())
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		log.Printf("⚠️ room %s: engine construction failed: %v", roomID, err)
		conn.Send(protocol.EventRoomError, protocol.RoomError{
			Type:    protocol.ErrServerError,
			Message: "failed to start game",
		})
		return
	}
	r.Engine = engine
	r.Status = StatusPlaying
	r.StartedAt = time.Now()
	hostConn := liveConn(r.Host)
	m.mu.Unlock()

	log.Printf("🤝 room %s: guest %s joined, starting engine", roomID, conn.ID())
	conn.Send(protocol.EventRoomJoined, protocol.RoomJoined{
		RoomID:    roomID,
		SessionID: sessionID,
		Role:      game.SlotGuest.String(),
	})
	send(hostConn, protocol.EventPlayerJoined, protocol.PlayerJoined{
		Role: game.SlotGuest.String(),
	})

	engine.Start()
	m.startBroadcast(r)

	now := time.Now().UnixMilli()
	start := protocol.GameStart{Timestamp: now}
	init := protocol.GameStateInit{
		Seed:           engine.Seed(),
		MapID:          m.cfg.MapID,
		HostPosition:   [2]float64{game.HostSpawnX, game.HostSpawnY},
		GuestPosition:  [2]float64{game.GuestSpawnX, game.GuestSpawnY},
		HostTankColor:  string(game.ColorYellow),
		GuestTankColor: string(game.ColorGreen),
		Timestamp:      now,
	}
	for _, c := range []Conn{hostConn, conn} {
		send(c, protocol.EventGameStart, start)
		send(c, protocol.EventGameStateInit, init)
	}
	m.notifyCounts()
}

// Leave tears the room down on an explicit leave_room: the peer is
// notified, the engine stops, the room is freed.
func (m *Manager) Leave(connID string) {
	m.mu.Lock()
	ref, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	r := m.rooms[ref.roomID]
	peerConn := liveConn(r.peer(ref.slot))
	m.removeRoomLocked(r)
	m.mu.Unlock()

	log.Printf("👋 room %s: %s left", ref.roomID, connID)
	send(peerConn, protocol.EventPlayerLeft, nil)
	m.notifyCounts()
}

// Disconnect marks a socket's slot as disconnected and starts the grace
// timer. The slot and its session survive until the timer fires.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	ref, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, connID)
	r := m.rooms[ref.roomID]
	slot := r.slot(ref.slot)
	slot.Connected = false
	slot.Conn = nil
	sessionID := slot.SessionID
	slot.reconnectTimer = time.AfterFunc(m.cfg.ReconnectTimeout, func() {
		m.expireSession(ref.roomID, sessionID)
	})
	peerConn := liveConn(r.peer(ref.slot))
	m.mu.Unlock()

	log.Printf("🔌 room %s: %s (%s) disconnected, %s grace", ref.roomID, connID, ref.slot, m.cfg.ReconnectTimeout)
	send(peerConn, protocol.EventOpponentDisconnected, nil)
	m.notifyCounts()
}

// Reconnect rebinds a new socket to the slot identified by sessionID. An
// unknown or expired session answers reconnect_failed with room_not_found.
func (m *Manager) Reconnect(conn Conn, sessionID string) {
	m.mu.Lock()
	ref, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		conn.Send(protocol.EventReconnectFailed, protocol.RoomError{
			Type:    protocol.ErrRoomNotFound,
			Message: "session expired or unknown",
		})
		return
	}
	r := m.rooms[ref.roomID]
	slot := r.slot(ref.slot)
	if slot.reconnectTimer != nil {
		slot.reconnectTimer.Stop()
		slot.reconnectTimer = nil
	}
	slot.Conn = conn
	slot.Connected = true
	m.conns[conn.ID()] = ref
	peerConn := liveConn(r.peer(ref.slot))
	m.mu.Unlock()

	log.Printf("🔁 room %s: %s reconnected as %s", ref.roomID, conn.ID(), ref.slot)
	conn.Send(protocol.EventReconnectSuccess, protocol.ReconnectSuccess{
		RoomID: ref.roomID,
		Role:   ref.slot.String(),
	})
	send(peerConn, protocol.EventOpponentReconnected, nil)
	m.notifyCounts()
}

// RouteInput forwards a validated input frame to the engine slot owned by
// the socket. Returns false when the socket has no playing room.
func (m *Manager) RouteInput(connID string, in game.PlayerInput) bool {
	m.mu.RLock()
	ref, ok := m.conns[connID]
	if !ok {
		m.mu.RUnlock()
		return false
	}
	r := m.rooms[ref.roomID]
	engine := r.Engine
	playing := r.Status == StatusPlaying
	m.mu.RUnlock()

	if !playing || engine == nil {
		return false
	}
	engine.SetInput(ref.slot, in)
	return true
}

// ClientGameOver handles the client-reported termination hint: only a
// member of a playing room may end it.
func (m *Manager) ClientGameOver(connID, winner, reason string) {
	m.mu.RLock()
	ref, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	m.handleGameOver(ref.roomID, game.GameOver{
		Winner:    winner,
		Reason:    reason,
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleGameOver finishes a room: both clients get game_over, the engine
// and broadcast loop stop. The room stays registered until its members
// leave or disconnect, so late reconnects still resolve.
func (m *Manager) handleGameOver(roomID string, over game.GameOver) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok || r.Status != StatusPlaying {
		m.mu.Unlock()
		return
	}
	r.Status = StatusFinished
	hostConn, guestConn := liveConn(r.Host), liveConn(r.Guest)
	m.stopRoomLocked(r)
	m.mu.Unlock()

	out := protocol.GameOver{Winner: over.Winner, Reason: over.Reason, Timestamp: over.Timestamp}
	send(hostConn, protocol.EventGameOver, out)
	send(guestConn, protocol.EventGameOver, out)
}

// expireSession fires when the grace window lapses without a reconnect.
func (m *Manager) expireSession(roomID, sessionID string) {
	m.mu.Lock()
	ref, ok := m.sessions[sessionID]
	if !ok || ref.roomID != roomID {
		m.mu.Unlock()
		return
	}
	r := m.rooms[roomID]
	slot := r.slot(ref.slot)
	if slot.Connected {
		m.mu.Unlock()
		return
	}
	peerConn := liveConn(r.peer(ref.slot))
	m.removeRoomLocked(r)
	m.mu.Unlock()

	log.Printf("⏰ room %s: %s grace expired, closing room", roomID, ref.slot)
	send(peerConn, protocol.EventPlayerLeft, nil)
	m.notifyCounts()
}

// removeRoomLocked frees a room and every index entry pointing at it.
// Caller holds m.mu.
func (m *Manager) removeRoomLocked(r *Room) {
	m.stopRoomLocked(r)
	for _, s := range []*PlayerSlot{r.Host, r.Guest} {
		if s == nil {
			continue
		}
		if s.reconnectTimer != nil {
			s.reconnectTimer.Stop()
		}
		delete(m.sessions, s.SessionID)
		if s.Conn != nil {
			delete(m.conns, s.Conn.ID())
		}
	}
	delete(m.rooms, r.ID)
}

// stopRoomLocked halts the engine and the broadcast loop, if running.
func (m *Manager) stopRoomLocked(r *Room) {
	if r.broadcastStop != nil {
		close(r.broadcastStop)
		r.broadcastStop = nil
	}
	if r.Engine != nil {
		r.Engine.Stop()
	}
}

// startBroadcast runs the per-room fan-out loop: every interval the latest
// snapshot goes to both sockets, plus a map_changes addendum on ticks that
// destroyed terrain. Slow clients drop frames inside Conn.Send.
func (m *Manager) startBroadcast(r *Room) {
	stop := make(chan struct{})
	r.broadcastStop = stop
	ticker := time.NewTicker(m.cfg.BroadcastInterval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				snap := r.Engine.LatestSnapshot()
				if snap.Sequence == 0 {
					continue
				}

				m.mu.RLock()
				hostConn, guestConn := liveConn(r.Host), liveConn(r.Guest)
				m.mu.RUnlock()

				send(hostConn, protocol.EventStateSync, snap)
				send(guestConn, protocol.EventStateSync, snap)

				if snap.Sequence != lastSeq &&
					(len(snap.BricksDestroyed) > 0 || len(snap.SteelsDestroyed) > 0) {
					changes := protocol.MapChanges{
						BricksDestroyed: append([]int(nil), snap.BricksDestroyed...),
						SteelsDestroyed: append([]int(nil), snap.SteelsDestroyed...),
					}
					send(hostConn, protocol.EventMapChanges, changes)
					send(guestConn, protocol.EventMapChanges, changes)
				}
				lastSeq = snap.Sequence
			}
		}
	}()
}

// Counts returns the number of rooms and connected players, for /health
// and metrics.
func (m *Manager) Counts() (rooms, players int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		rooms++
		players += r.connectedCount()
	}
	return rooms, players
}

// Room returns a room by id, for tests and diagnostics.
func (m *Manager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// ReconnectTimeout exposes the configured grace window.
func (m *Manager) ReconnectTimeout() time.Duration {
	return m.cfg.ReconnectTimeout
}

func (m *Manager) notifyCounts() {
	if m.OnCountsChanged == nil {
		return
	}
	rooms, players := m.Counts()
	m.OnCountsChanged(rooms, players)
}
