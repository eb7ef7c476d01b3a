package game

import (
	"sync/atomic"
	"time"
)

// Game status values carried in snapshots.
const (
	StatusPlaying = "playing"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// TankSnapshot is an immutable copy of one tank for broadcasting.
type TankSnapshot struct {
	ID          int       `json:"id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Direction   Direction `json:"direction"`
	Moving      bool      `json:"moving"`
	Alive       bool      `json:"alive"`
	Side        Side      `json:"side"`
	Level       TankLevel `json:"level"`
	Color       TankColor `json:"color"`
	HP          int       `json:"hp"`
	Helmet      float64   `json:"helmet"`
	Frozen      float64   `json:"frozen"`
	Cooldown    float64   `json:"cooldown"`
	WithPowerUp bool      `json:"withPowerUp"`
}

// BulletSnapshot is an immutable copy of one bullet.
type BulletSnapshot struct {
	ID        int       `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Direction Direction `json:"direction"`
	Speed     float64   `json:"speed"`
	TankID    int       `json:"tankId"`
	Power     int       `json:"power"`
}

// MapSnapshot carries the full terrain state. Clients diff consecutive
// snapshots; destruction is monotone so diffs only ever remove cells.
type MapSnapshot struct {
	Bricks      []bool `json:"bricks"`
	Steels      []bool `json:"steels"`
	EagleBroken bool   `json:"eagleBroken"`
}

// SlotSnapshot is the per-player-slot view (lives, score, active tank).
// ActiveTankID is 0 when the slot has no alive tank; real ids start at 1.
type SlotSnapshot struct {
	Lives        int `json:"lives"`
	Score        int `json:"score"`
	ActiveTankID int `json:"activeTankId,omitempty"`
}

// PlayersSnapshot groups both slots.
type PlayersSnapshot struct {
	Host  SlotSnapshot `json:"host"`
	Guest SlotSnapshot `json:"guest"`
}

// Snapshot is a complete authoritative world state as of Timestamp.
// Slices are owned by the snapshot pool; consumers must not retain them
// past the next broadcast interval.
type Snapshot struct {
	Sequence  uint64 `json:"-"`
	Timestamp int64  `json:"timestamp"` // unix ms

	Tanks   []TankSnapshot   `json:"tanks"`
	Bullets []BulletSnapshot `json:"bullets"`
	Map     MapSnapshot      `json:"map"`
	Players PlayersSnapshot  `json:"players"`

	RemainingBots int    `json:"remainingBots"`
	GameStatus    string `json:"gameStatus"`

	// Cells destroyed during the producing tick, for the optional
	// map_changes addendum. Empty on quiet ticks.
	BricksDestroyed []int `json:"-"`
	SteelsDestroyed []int `json:"-"`
}

// snapshotPool triple-buffers snapshots so the broadcast loop reads
// lock-free while the tick writes. Producer and consumer never share an
// index: the writer advances writeIdx, fills the slot, then publishes it
// as readIdx.
type snapshotPool struct {
	snaps    [3]Snapshot
	writeIdx uint32 // atomic
	readIdx  uint32 // atomic
	sequence uint64 // atomic
}

func newSnapshotPool() *snapshotPool {
	p := &snapshotPool{}
	for i := range p.snaps {
		p.snaps[i] = Snapshot{
			Tanks:   make([]TankSnapshot, 0, 32),
			Bullets: make([]BulletSnapshot, 0, 64),
			Map: MapSnapshot{
				Bricks: make([]bool, BrickCount),
				Steels: make([]bool, SteelCount),
			},
			BricksDestroyed: make([]int, 0, 16),
			SteelsDestroyed: make([]int, 0, 8),
		}
	}
	return p
}

// acquireWrite returns the next write slot with slices reset but capacity
// kept. Producer only (the engine tick).
func (p *snapshotPool) acquireWrite() *Snapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snaps[idx]

	snap.Tanks = snap.Tanks[:0]
	snap.Bullets = snap.Bullets[:0]
	snap.BricksDestroyed = snap.BricksDestroyed[:0]
	snap.SteelsDestroyed = snap.SteelsDestroyed[:0]

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now().UnixMilli()
	return snap
}

// publishWrite makes the just-filled slot visible to readers.
func (p *snapshotPool) publishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// acquireRead returns the latest published snapshot. Consumer only (the
// broadcast loop).
func (p *snapshotPool) acquireRead() *Snapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snaps[idx]
}
