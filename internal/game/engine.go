package game

import (
	"log"
	"sync"
	"time"
)

// Slot identifies one of the two player positions in a room.
type Slot int

const (
	SlotHost Slot = iota
	SlotGuest
)

func (s Slot) String() string {
	if s == SlotHost {
		return "host"
	}
	return "guest"
}

// slotColor is fixed: host drives yellow, guest drives green.
func slotColor(s Slot) TankColor {
	if s == SlotHost {
		return ColorYellow
	}
	return ColorGreen
}

func slotSpawn(s Slot) (float64, float64) {
	if s == SlotHost {
		return HostSpawnX, HostSpawnY
	}
	return GuestSpawnX, GuestSpawnY
}

// GameOver describes how a room's game ended.
type GameOver struct {
	Winner    string `json:"winner"` // "host" | "guest" | "draw"
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// EngineConfig configures one per-room engine.
type EngineConfig struct {
	RoomID   string
	TickRate int    // ticks per second; 0 means 60
	Stage    string // stage descriptor; empty means DefaultStage

	// OnGameOver fires once, from the tick goroutine, when the game ends.
	OnGameOver func(GameOver)

	// OnTick, when set, observes each tick's wall-clock duration.
	OnTick func(time.Duration)
}

// slotState is per-slot bookkeeping: lives, score and the slot's active
// tank. activeTankID is 0 when the slot has no tank on the field.
type slotState struct {
	lives          int
	score          int
	activeTankID   int
	pendingRespawn bool
}

// Engine is the authoritative per-room simulation. Game state is
// single-writer: only the tick goroutine mutates it. Inputs arrive through
// latest-value cells; the broadcast plane reads triple-buffered snapshots.
type Engine struct {
	roomID   string
	tickRate int

	tiles   *TileMap
	rng     *lcg
	spawner *botSpawner

	tanks   map[int]*Tank
	order   []int // tank ids in spawn order, for stable snapshots
	bullets []*Bullet

	nextTankID   int
	nextBulletID int

	inputs [2]inputCell
	slots  [2]slotState

	status    string
	gameOver  bool
	tickCount int64
	lastTick  time.Time

	pool *snapshotPool

	onGameOver func(GameOver)
	onTick     func(time.Duration)

	mu       sync.Mutex // guards the running/ticker lifecycle only
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickPanics int // consecutive tick failures
}

// NewEngine builds a stopped engine for one room. The bot schedule is
// derived deterministically from the room id.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	stage := cfg.Stage
	if stage == "" {
		stage = DefaultStage
	}
	tiles, err := ParseStage(stage)
	if err != nil {
		return nil, err
	}

	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}

	rng := newLCG(cfg.RoomID)
	return &Engine{
		roomID:     cfg.RoomID,
		tickRate:   tickRate,
		tiles:      tiles,
		rng:        rng,
		spawner:    newBotSpawner(rng),
		tanks:      make(map[int]*Tank),
		bullets:    make([]*Bullet, 0, 64),
		status:     StatusPlaying,
		pool:       newSnapshotPool(),
		onGameOver: cfg.OnGameOver,
		onTick:     cfg.OnTick,
		stopChan:   make(chan struct{}),
		slots: [2]slotState{
			{lives: PlayerStartLives},
			{lives: PlayerStartLives},
		},
	}, nil
}

// Start spawns both player tanks and the initial bot burst, publishes the
// first snapshot (which carries the full map arrays), and begins ticking.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.lastTick = time.Now()
	e.spawnPlayer(SlotHost)
	e.spawnPlayer(SlotGuest)
	for {
		level, x, y, powerUp, ok := e.spawner.NextDue(0)
		if !ok {
			break
		}
		e.spawnBot(level, x, y, powerUp)
	}
	e.produceSnapshot()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.safeTick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 [%s] engine started at %d TPS", e.roomID, e.tickRate)
}

// Stop halts the tick loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Printf("🛑 [%s] engine stopped", e.roomID)
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetInput publishes a new intent frame for a slot. Called from transport
// goroutines; the engine reads the latest value at the top of each tick.
func (e *Engine) SetInput(slot Slot, in PlayerInput) {
	e.inputs[slot].Store(in)
}

// LatestSnapshot returns the most recently published snapshot. Lock-free;
// callers must not retain the snapshot's slices.
func (e *Engine) LatestSnapshot() *Snapshot {
	return e.pool.acquireRead()
}

// Seed returns the deterministic seed derived from the room id, handed to
// clients in game_state_init.
func (e *Engine) Seed() int64 {
	return newLCG(e.roomID).s
}

// safeTick runs one tick, containing panics so a failing step cannot take
// the process down. Ten consecutive failures end the room instead.
func (e *Engine) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			e.tickPanics++
			log.Printf("⚠️ [%s] tick panic (%d consecutive): %v", e.roomID, e.tickPanics, r)
			if e.tickPanics >= 10 && !e.gameOver {
				e.finish(StatusLost, GameOver{
					Winner:    "draw",
					Reason:    "server_error",
					Timestamp: time.Now().UnixMilli(),
				})
			}
		}
	}()

	start := time.Now()
	e.tick()
	e.tickPanics = 0
	if e.onTick != nil {
		e.onTick(time.Since(start))
	}
}

func (e *Engine) finish(status string, over GameOver) {
	e.status = status
	e.gameOver = true
	log.Printf("🏁 [%s] game over: %s (winner=%s)", e.roomID, over.Reason, over.Winner)
	if e.onGameOver != nil {
		e.onGameOver(over)
	}
}

// spawnPlayer places a fresh player tank for a slot at its fixed spawn
// with spawn invincibility.
func (e *Engine) spawnPlayer(slot Slot) {
	x, y := slotSpawn(slot)
	e.nextTankID++
	t := &Tank{
		ID:             e.nextTankID,
		X:              x,
		Y:              y,
		Direction:      DirUp,
		Alive:          true,
		Side:           SidePlayer,
		Level:          LevelBasic,
		Color:          slotColor(slot),
		HP:             1,
		HelmetDuration: SpawnInvincibleMs,
	}
	e.tanks[t.ID] = t
	e.order = append(e.order, t.ID)
	e.slots[slot].activeTankID = t.ID
	e.slots[slot].pendingRespawn = false
}

// spawnBot places a queued bot at the next cycled spawn position.
func (e *Engine) spawnBot(level TankLevel, x, y float64, withPowerUp bool) {
	e.nextTankID++
	t := &Tank{
		ID:          e.nextTankID,
		X:           x,
		Y:           y,
		Direction:   DirDown,
		Moving:      true,
		Alive:       true,
		Side:        SideBot,
		Level:       level,
		Color:       ColorSilver,
		HP:          hpFor(level),
		WithPowerUp: withPowerUp,
	}
	e.tanks[t.ID] = t
	e.order = append(e.order, t.ID)
}
