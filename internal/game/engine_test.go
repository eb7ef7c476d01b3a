package game

import (
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{RoomID: "TEST01"})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func (e *Engine) hostTank() *Tank {
	return e.tanks[e.slots[SlotHost].activeTankID]
}

func TestMoveTank(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	tank := e.hostTank()

	// Open path: 100ms up from the host spawn
	tank.Direction = DirUp
	e.moveTank(tank, 100)
	if tank.Y != HostSpawnY-PlayerSpeed*100 {
		t.Errorf("y = %v, want %v", tank.Y, HostSpawnY-PlayerSpeed*100)
	}

	// Blocked: the brick lane below (16,16) rejects the whole step
	tank.X, tank.Y = 16, 0
	tank.Direction = DirDown
	e.moveTank(tank, 100)
	if tank.X != 16 || tank.Y != 0 {
		t.Errorf("blocked tank moved to (%v, %v)", tank.X, tank.Y)
	}

	// Field edge: clamped, not an error
	tank.X, tank.Y = 0, 0
	tank.Direction = DirLeft
	e.moveTank(tank, 100)
	if tank.X != 0 {
		t.Errorf("tank pushed past the left edge: x = %v", tank.X)
	}

	// Frozen tanks do not move
	tank.X, tank.Y = 64, 100
	tank.Direction = DirUp
	tank.FrozenTimeout = 500
	e.moveTank(tank, 100)
	if tank.Y != 100 {
		t.Errorf("frozen tank moved: y = %v", tank.Y)
	}
}

func TestAlignForTurn(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	tank := e.hostTank()

	// Both candidates free: round to the nearest 8
	tank.X, tank.Y = 64, 190
	tank.Direction = DirUp
	e.alignForTurn(tank, DirLeft)
	if tank.Y != 192 {
		t.Errorf("y = %v, want 192 (round8)", tank.Y)
	}

	// Only floor free: x=66 in the top brick lane row, ceil lands in brick
	tank.X, tank.Y = 66, 16
	tank.Direction = DirRight
	e.alignForTurn(tank, DirUp)
	if tank.X != 64 {
		t.Errorf("x = %v, want 64 (floor8)", tank.X)
	}
}

func TestFire(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	tank := e.hostTank()
	tank.X, tank.Y = 40, 40
	tank.Direction = DirUp

	e.fire(tank)
	if len(e.bullets) != 1 {
		t.Fatalf("bullets = %d, want 1", len(e.bullets))
	}
	b := e.bullets[0]
	if b.X != 46.5 || b.Y != 37 {
		t.Errorf("bullet at (%v, %v), want (46.5, 37)", b.X, b.Y)
	}
	if b.TankID != tank.ID || b.Power != 1 || b.Direction != DirUp {
		t.Errorf("bullet = %+v", b)
	}
	if tank.Cooldown != FireCooldownMs {
		t.Errorf("cooldown = %v, want %v", tank.Cooldown, FireCooldownMs)
	}

	// Cooldown gates a second shot
	e.fire(tank)
	if len(e.bullets) != 1 {
		t.Errorf("cooling tank fired: bullets = %d", len(e.bullets))
	}

	// Cooldown expires, gate reopens
	tank.tickCountdowns(FireCooldownMs)
	e.fire(tank)
	if len(e.bullets) != 2 {
		t.Errorf("bullets = %d, want 2 after cooldown", len(e.bullets))
	}
}

func TestUpdateBullets(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	owner := e.hostTank()

	e.bullets = []*Bullet{
		{ID: 1, X: 100, Y: 100, Direction: DirDown, Speed: BulletSpeed, TankID: owner.ID},
		{ID: 2, X: 100, Y: 2, Direction: DirUp, Speed: BulletSpeed, TankID: owner.ID},
		{ID: 3, X: 100, Y: 100, Direction: DirDown, Speed: BulletSpeed, TankID: 999}, // orphan
	}

	e.updateBullets(100)

	if len(e.bullets) != 1 {
		t.Fatalf("bullets = %d, want 1 (out-of-field and orphan dropped)", len(e.bullets))
	}
	if e.bullets[0].ID != 1 {
		t.Errorf("surviving bullet id = %d, want 1", e.bullets[0].ID)
	}
	if e.bullets[0].Y != 100+BulletSpeed*100 {
		t.Errorf("bullet y = %v, want %v", e.bullets[0].Y, 100+BulletSpeed*100)
	}
}

func TestBulletWallCollisions(t *testing.T) {
	e := newTestEngine(t)

	// Power 1 clears bricks but not steel
	e.bullets = []*Bullet{
		{ID: 1, X: 17, Y: 17, Power: 1}, // brick lane
		{ID: 2, X: 1, Y: 97, Power: 1},  // steel block
	}
	bricks, steels := e.bulletWallCollisions()
	if len(bricks) == 0 {
		t.Error("brick hit should report destroyed cells")
	}
	if len(steels) != 0 {
		t.Error("power 1 must not destroy steel")
	}
	if len(e.bullets) != 0 {
		t.Errorf("bullets = %d, want 0 (both consumed)", len(e.bullets))
	}
	for _, i := range bricks {
		if e.tiles.BrickAt(i) {
			t.Errorf("brick %d still present after destruction", i)
		}
	}
	// Power 3 destroys steel
	e.bullets = []*Bullet{{ID: 3, X: 1, Y: 97, Power: 3}}
	_, steels = e.bulletWallCollisions()
	if len(steels) == 0 {
		t.Error("power 3 should destroy steel")
	}
	for _, i := range steels {
		if e.tiles.SteelAt(i) {
			t.Errorf("steel %d still present after destruction", i)
		}
	}

	// The eagle breaking is recorded on the map
	e.bullets = []*Bullet{{ID: 4, X: 100, Y: 196, Power: 1}}
	e.bulletWallCollisions()
	if !e.tiles.EagleBroken {
		t.Error("eagle hit should break the eagle")
	}
}

func TestBulletTankFriendlyFire(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	e.spawnPlayer(SlotGuest)
	host := e.tanks[e.slots[SlotHost].activeTankID]
	guest := e.tanks[e.slots[SlotGuest].activeTankID]
	guest.X, guest.Y = 100, 100

	e.bullets = []*Bullet{{ID: 1, X: 102, Y: 102, TankID: host.ID, Power: 1}}
	e.bulletTankCollisions()

	if len(e.bullets) != 0 {
		t.Error("friendly-fire bullet should be consumed")
	}
	if guest.HP != 1 || !guest.Alive {
		t.Error("friendly fire must not damage the peer")
	}
}

func TestBulletPassesThroughBots(t *testing.T) {
	e := newTestEngine(t)
	e.spawnBot(LevelBasic, 20, 100, false)
	e.spawnBot(LevelBasic, 100, 100, false)
	shooter := e.tanks[e.order[0]]
	target := e.tanks[e.order[1]]

	e.bullets = []*Bullet{{ID: 1, X: 102, Y: 102, TankID: shooter.ID, Power: 1}}
	e.bulletTankCollisions()

	if len(e.bullets) != 1 {
		t.Error("bot bullet should pass through bots")
	}
	if target.HP != 1 || !target.Alive {
		t.Error("bot-vs-bot bullet must not damage")
	}
}

func TestHelmetAbsorbsBotFire(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	e.spawnBot(LevelBasic, 0, 0, false)
	player := e.hostTank()
	player.X, player.Y = 100, 100
	bot := e.tanks[e.order[1]]

	if player.HelmetDuration <= 0 {
		t.Fatal("fresh spawn should carry a helmet")
	}

	e.bullets = []*Bullet{{ID: 1, X: 102, Y: 102, TankID: bot.ID, Power: 1}}
	e.bulletTankCollisions()

	if len(e.bullets) != 0 {
		t.Error("absorbed bullet should still be consumed")
	}
	if player.HP != 1 || !player.Alive {
		t.Error("helmet should absorb the hit")
	}

	// Helmet gone, the same shot kills
	player.HelmetDuration = 0
	e.bullets = []*Bullet{{ID: 2, X: 102, Y: 102, TankID: bot.ID, Power: 1}}
	e.bulletTankCollisions()
	if player.Alive {
		t.Error("unprotected player should die")
	}
	if e.slots[SlotHost].lives != PlayerStartLives-1 {
		t.Errorf("lives = %d, want %d", e.slots[SlotHost].lives, PlayerStartLives-1)
	}
	if e.slots[SlotHost].activeTankID != 0 {
		t.Error("dead slot should have no active tank")
	}
	if !e.slots[SlotHost].pendingRespawn {
		t.Error("player with lives left should be scheduled for respawn")
	}
}

func TestBotKillAwardsScore(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	player := e.hostTank()
	player.X, player.Y = 20, 180

	tests := []struct {
		level TankLevel
		score int
	}{
		{LevelBasic, 100},
		{LevelFast, 200},
		{LevelPower, 300},
		{LevelArmor, 400},
	}

	total := 0
	for _, tt := range tests {
		e.spawnBot(tt.level, 100, 100, false)
		bot := e.tanks[e.order[len(e.order)-1]]
		bot.HP = 1 // armor would take 4 hits otherwise

		e.bullets = []*Bullet{{ID: 1, X: 102, Y: 102, TankID: player.ID, Power: 1}}
		e.bulletTankCollisions()

		if bot.Alive {
			t.Fatalf("%s bot survived", tt.level)
		}
		total += tt.score
		if e.slots[SlotHost].score != total {
			t.Errorf("score = %d, want %d", e.slots[SlotHost].score, total)
		}
		e.reapDead()
	}
}

func TestArmorBotTakesFourHits(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	player := e.hostTank()
	player.X, player.Y = 20, 180
	e.spawnBot(LevelArmor, 100, 100, false)
	bot := e.tanks[e.order[1]]

	for hit := 1; hit <= 4; hit++ {
		e.bullets = []*Bullet{{ID: hit, X: 102, Y: 102, TankID: player.ID, Power: 1}}
		e.bulletTankCollisions()
		if hit < 4 && !bot.Alive {
			t.Fatalf("armor bot died after %d hits", hit)
		}
	}
	if bot.Alive {
		t.Error("armor bot should die on the 4th hit")
	}
}

func TestReapDeadRespawnsPlayer(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	player := e.hostTank()
	oldID := player.ID
	player.HelmetDuration = 0

	e.spawnBot(LevelBasic, 0, 0, false)
	bot := e.tanks[e.order[1]]
	player.X, player.Y = 100, 100
	e.bullets = []*Bullet{{ID: 1, X: 102, Y: 102, TankID: bot.ID, Power: 1}}
	e.bulletTankCollisions()

	// Dead tank survives until the next tick's reap
	if _, ok := e.tanks[oldID]; !ok {
		t.Fatal("dead tank should remain for one snapshot")
	}

	e.reapDead()
	if _, ok := e.tanks[oldID]; ok {
		t.Error("dead tank should be reaped")
	}
	fresh := e.hostTank()
	if fresh == nil || fresh.ID == oldID {
		t.Fatal("player should respawn with a new tank")
	}
	if fresh.X != HostSpawnX || fresh.Y != HostSpawnY {
		t.Errorf("respawn at (%v, %v), want (%v, %v)", fresh.X, fresh.Y, HostSpawnX, HostSpawnY)
	}
	if fresh.HelmetDuration != SpawnInvincibleMs {
		t.Errorf("respawn helmet = %v, want %v", fresh.HelmetDuration, SpawnInvincibleMs)
	}
}

func TestCheckGameOverEagle(t *testing.T) {
	var over *GameOver
	e, err := NewEngine(EngineConfig{
		RoomID:     "TEST01",
		OnGameOver: func(g GameOver) { over = &g },
	})
	if err != nil {
		t.Fatal(err)
	}

	e.tiles.EagleBroken = true
	e.checkGameOver(time.Now())

	if !e.gameOver || e.status != StatusLost {
		t.Errorf("gameOver=%v status=%s, want lost", e.gameOver, e.status)
	}
	if over == nil || over.Reason != "eagle_destroyed" {
		t.Errorf("over = %+v, want eagle_destroyed", over)
	}
}

func TestCheckGameOverPlayersDestroyed(t *testing.T) {
	var over *GameOver
	e, err := NewEngine(EngineConfig{
		RoomID:     "TEST01",
		OnGameOver: func(g GameOver) { over = &g },
	})
	if err != nil {
		t.Fatal(err)
	}

	e.slots[SlotHost] = slotState{lives: 0}
	e.slots[SlotGuest] = slotState{lives: 0}
	e.checkGameOver(time.Now())

	if !e.gameOver || e.status != StatusLost {
		t.Errorf("gameOver=%v status=%s, want lost", e.gameOver, e.status)
	}
	if over == nil || over.Reason != "players_destroyed" {
		t.Errorf("over = %+v, want players_destroyed", over)
	}
}

func TestCheckGameOverWin(t *testing.T) {
	var over *GameOver
	e, err := NewEngine(EngineConfig{
		RoomID:     "TEST01",
		OnGameOver: func(g GameOver) { over = &g },
	})
	if err != nil {
		t.Fatal(err)
	}
	e.spawnPlayer(SlotHost)
	e.spawnPlayer(SlotGuest)

	// Not over while the queue still holds bots
	e.checkGameOver(time.Now())
	if e.gameOver {
		t.Fatal("game ended with bots still queued")
	}

	for !e.spawner.Drained() {
		e.spawner.NextDue(BotSpawnEveryMs)
	}
	e.checkGameOver(time.Now())

	if !e.gameOver || e.status != StatusWon {
		t.Errorf("gameOver=%v status=%s, want won", e.gameOver, e.status)
	}
	if over == nil || over.Reason != "all_bots_destroyed" {
		t.Errorf("over = %+v, want all_bots_destroyed", over)
	}
}

func TestCheckGameOverWinWaitsForAliveBots(t *testing.T) {
	e := newTestEngine(t)
	for !e.spawner.Drained() {
		e.spawner.NextDue(BotSpawnEveryMs)
	}
	e.spawnBot(LevelBasic, 0, 0, false)

	e.checkGameOver(time.Now())
	if e.gameOver {
		t.Error("game must not end while a bot is alive")
	}
}

func TestUpdatePlayerAppliesInput(t *testing.T) {
	e := newTestEngine(t)
	e.spawnPlayer(SlotHost)
	tank := e.hostTank()
	startY := tank.Y

	e.SetInput(SlotHost, PlayerInput{Direction: DirUp, Moving: true, Firing: true})
	e.updatePlayer(SlotHost, 100)

	if tank.Y >= startY {
		t.Errorf("tank did not move up: y = %v", tank.Y)
	}
	if len(e.bullets) != 1 {
		t.Errorf("bullets = %d, want 1", len(e.bullets))
	}

	// Re-reading the same input frame keeps the tank moving (latest-value
	// semantics) but the cooldown gates further shots
	e.updatePlayer(SlotHost, 100)
	if len(e.bullets) != 1 {
		t.Errorf("bullets = %d, want 1 (cooldown)", len(e.bullets))
	}
}

func TestSnapshotPool(t *testing.T) {
	p := newSnapshotPool()

	if p.acquireRead().Sequence != 0 {
		t.Error("unpublished pool should read sequence 0")
	}

	w := p.acquireWrite()
	w.Tanks = append(w.Tanks, TankSnapshot{ID: 7})
	p.publishWrite()

	r := p.acquireRead()
	if r.Sequence != 1 || len(r.Tanks) != 1 || r.Tanks[0].ID != 7 {
		t.Errorf("read snapshot = seq %d, %d tanks", r.Sequence, len(r.Tanks))
	}

	// Next write slot starts clean
	w2 := p.acquireWrite()
	if len(w2.Tanks) != 0 {
		t.Error("write slot should have reset slices")
	}
	if w2 == r {
		t.Error("writer and reader must not share a slot")
	}
}

func TestEngineLifecycle(t *testing.T) {
	e, err := NewEngine(EngineConfig{RoomID: "ROOM42", TickRate: 60})
	if err != nil {
		t.Fatal(err)
	}

	e.Start()
	defer e.Stop()
	if !e.Running() {
		t.Fatal("engine should be running after Start")
	}

	time.Sleep(150 * time.Millisecond)

	snap := e.LatestSnapshot()
	if snap.Sequence == 0 {
		t.Fatal("no snapshot published")
	}
	if len(snap.Tanks) != 6 {
		t.Errorf("tanks = %d, want 6 (2 players + initial burst)", len(snap.Tanks))
	}
	if snap.Players.Host.Lives != PlayerStartLives || snap.Players.Guest.Lives != PlayerStartLives {
		t.Errorf("lives = %+v", snap.Players)
	}
	if snap.RemainingBots != BotQueueSize-BotInitialBurst {
		t.Errorf("remainingBots = %d, want %d", snap.RemainingBots, BotQueueSize-BotInitialBurst)
	}
	if snap.GameStatus != StatusPlaying {
		t.Errorf("status = %s, want playing", snap.GameStatus)
	}

	e.Stop()
	if e.Running() {
		t.Error("engine should stop")
	}
	e.Stop() // idempotent
}
