package game

// lcg is the deterministic generator used for the bot schedule and bot
// steering. Same room id, same sequence: replaying a room reproduces the
// exact spawn order.
type lcg struct {
	s int64
}

const lcgMod = 233280

// newLCG folds a room id into an initial LCG state.
func newLCG(roomID string) *lcg {
	var s int64
	for _, b := range []byte(roomID) {
		s = (s*131 + int64(b)) % lcgMod
	}
	return &lcg{s: s}
}

// next returns a pseudo-random float in [0, 1).
func (g *lcg) next() float64 {
	g.s = (g.s*9301 + 49297) % lcgMod
	return float64(g.s) / lcgMod
}

// intn returns a pseudo-random int in [0, n).
func (g *lcg) intn(n int) int {
	return int(g.next() * float64(n))
}

// botSpawner owns the per-room queue of 20 bot levels and the spawn timer.
type botSpawner struct {
	queue     []TankLevel
	spawned   int
	timer     float64 // ms until next scheduled spawn
	positions int     // cycling index into BotSpawnPositions
}

// newBotSpawner builds the 20-entry level queue (18 basic, 1 fast,
// 1 power) shuffled with the room-seeded LCG.
func newBotSpawner(rng *lcg) *botSpawner {
	queue := make([]TankLevel, 0, BotQueueSize)
	for i := 0; i < BotQueueSize-2; i++ {
		queue = append(queue, LevelBasic)
	}
	queue = append(queue, LevelFast, LevelPower)

	// Fisher-Yates with the seeded LCG.
	for i := len(queue) - 1; i > 0; i-- {
		j := rng.intn(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}

	return &botSpawner{queue: queue}
}

// Remaining returns how many bots are still queued.
func (s *botSpawner) Remaining() int {
	return len(s.queue) - s.spawned
}

// Drained reports whether every queued bot has been spawned.
func (s *botSpawner) Drained() bool {
	return s.spawned >= len(s.queue)
}

// NextDue advances the spawn timer and pops the next bot when one is due.
// The first BotInitialBurst bots are due immediately; afterwards one bot
// every BotSpawnEveryMs. Power-up carriers are the 4th, 11th and 18th.
func (s *botSpawner) NextDue(delta float64) (level TankLevel, x, y float64, withPowerUp, ok bool) {
	if s.Drained() {
		return "", 0, 0, false, false
	}

	if s.spawned >= BotInitialBurst {
		s.timer -= delta
		if s.timer > 0 {
			return "", 0, 0, false, false
		}
	}

	level = s.queue[s.spawned]
	withPowerUp = s.spawned == 3 || s.spawned == 10 || s.spawned == 17
	pos := BotSpawnPositions[s.positions%len(BotSpawnPositions)]
	s.positions++
	s.spawned++
	s.timer = BotSpawnEveryMs

	return level, pos[0], pos[1], withPowerUp, true
}
