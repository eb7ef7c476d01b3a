package game

import "time"

// tick runs one simulation step. Fixed ordering: reap last tick's dead,
// player updates (host then guest), bot updates, bullet motion, bullet-wall,
// bullet-tank, countdowns, bot spawning, end-of-game evaluation, snapshot.
func (e *Engine) tick() {
	now := time.Now()
	delta := float64(now.Sub(e.lastTick).Microseconds()) / 1000.0
	e.lastTick = now
	e.tickCount++

	if e.gameOver {
		e.produceSnapshot()
		return
	}

	e.reapDead()

	e.updatePlayer(SlotHost, delta)
	e.updatePlayer(SlotGuest, delta)
	e.updateBots(delta)

	e.updateBullets(delta)
	destroyedBricks, destroyedSteels := e.bulletWallCollisions()
	e.bulletTankCollisions()

	for _, id := range e.order {
		e.tanks[id].tickCountdowns(delta)
	}

	level, x, y, powerUp, ok := e.spawner.NextDue(delta)
	for ok {
		e.spawnBot(level, x, y, powerUp)
		level, x, y, powerUp, ok = e.spawner.NextDue(0)
	}

	e.checkGameOver(now)

	e.produceSnapshot(destroyedBricks, destroyedSteels)
}

// reapDead removes tanks that died on a previous tick (they stay in one
// snapshot for the death animation) and respawns players with lives left.
func (e *Engine) reapDead() {
	n := 0
	for _, id := range e.order {
		if e.tanks[id].Alive {
			e.order[n] = id
			n++
		} else {
			delete(e.tanks, id)
		}
	}
	e.order = e.order[:n]

	for slot := range e.slots {
		st := &e.slots[slot]
		if st.pendingRespawn && st.activeTankID == 0 {
			e.spawnPlayer(Slot(slot))
		}
	}
}

// updatePlayer applies the slot's latest input: facing (with turn
// alignment), movement, then firing.
func (e *Engine) updatePlayer(slot Slot, delta float64) {
	t := e.tanks[e.slots[slot].activeTankID]
	if t == nil || !t.Alive {
		return
	}

	in, ok := e.inputs[slot].Load()
	if ok {
		if in.Direction.Valid() && in.Direction != t.Direction {
			if in.Direction.Perpendicular(t.Direction) {
				e.alignForTurn(t, in.Direction)
			}
			t.Direction = in.Direction
		}
		t.Moving = in.Moving
	}

	if t.Moving {
		e.moveTank(t, delta)
	}

	if ok && in.Firing {
		e.fire(t)
	}
}

// alignForTurn snaps the non-moving axis to the 8-unit grid before a
// perpendicular turn: floor8 or ceil8 if exactly one is collision-free,
// round8 otherwise.
func (e *Engine) alignForTurn(t *Tank, newDir Direction) {
	snap := func(v float64, place func(float64) Rect) float64 {
		f, c := floor8(v), ceil8(v)
		okF := e.wallFree(place(f))
		okC := e.wallFree(place(c))
		switch {
		case okF && !okC:
			return f
		case okC && !okF:
			return c
		default:
			return round8(v)
		}
	}

	if newDir.Horizontal() {
		t.Y = clampToField(snap(t.Y, func(y float64) Rect { return TankRect(t.X, y) }), TankSize)
	} else {
		t.X = clampToField(snap(t.X, func(x float64) Rect { return TankRect(x, t.Y) }), TankSize)
	}
}

func (e *Engine) wallFree(r Rect) bool {
	return inField(r) && !e.tiles.CollidesWalls(r, WallThreshold)
}

// moveTank advances a tank along its facing by speed * delta, clamped to
// the field. A colliding candidate position means no movement this tick;
// there is no sliding.
func (e *Engine) moveTank(t *Tank, delta float64) {
	if t.FrozenTimeout > 0 {
		return
	}

	d := t.Speed() * delta
	x, y := t.X, t.Y
	switch t.Direction {
	case DirUp:
		y -= d
	case DirDown:
		y += d
	case DirLeft:
		x -= d
	case DirRight:
		x += d
	}
	x = clampToField(x, TankSize)
	y = clampToField(y, TankSize)

	if e.tiles.CollidesWalls(TankRect(x, y), WallThreshold) {
		return
	}
	t.X, t.Y = x, y
}

// fire emits a bullet from the tank's muzzle if the fire gate is open.
func (e *Engine) fire(t *Tank) {
	if !t.CanFire() {
		return
	}
	x, y := t.muzzle()
	e.nextBulletID++
	e.bullets = append(e.bullets, &Bullet{
		ID:        e.nextBulletID,
		X:         x,
		Y:         y,
		Direction: t.Direction,
		Speed:     BulletSpeed,
		TankID:    t.ID,
		Power:     1,
	})
	t.Cooldown = FireCooldownMs
}

// updateBots runs the folded-in AI pass: each bot re-steers when blocked
// or on a periodic impulse, always moves, and fires opportunistically.
// All randomness comes from the room-seeded generator.
func (e *Engine) updateBots(delta float64) {
	for _, id := range e.order {
		t := e.tanks[id]
		if t.Side != SideBot || !t.Alive {
			continue
		}

		t.steerTimer -= delta
		if t.steerTimer <= 0 || e.blockedAhead(t, delta) {
			next := e.pickBotDirection(t)
			if next != t.Direction {
				if next.Perpendicular(t.Direction) {
					e.alignForTurn(t, next)
				}
				t.Direction = next
			}
			t.steerTimer = 800 + e.rng.next()*2400
		}

		t.Moving = true
		e.moveTank(t, delta)

		if t.CanFire() && e.rng.next() < 0.03 {
			e.fire(t)
		}
	}
}

// blockedAhead reports whether the tank's next movement step would be
// rejected (wall or field edge).
func (e *Engine) blockedAhead(t *Tank, delta float64) bool {
	d := t.Speed() * delta
	if d <= 0 {
		return false
	}
	x, y := t.X, t.Y
	switch t.Direction {
	case DirUp:
		y -= d
	case DirDown:
		y += d
	case DirLeft:
		x -= d
	case DirRight:
		x += d
	}
	cx := clampToField(x, TankSize)
	cy := clampToField(y, TankSize)
	if cx != x || cy != y {
		return true
	}
	return e.tiles.CollidesWalls(TankRect(cx, cy), WallThreshold)
}

// pickBotDirection chooses a new facing, biased toward the eagle's half of
// the field (down), never re-picking the current facing.
func (e *Engine) pickBotDirection(t *Tank) Direction {
	candidates := [6]Direction{DirDown, DirDown, DirLeft, DirRight, DirUp, DirDown}
	for tries := 0; tries < 4; tries++ {
		d := candidates[e.rng.intn(len(candidates))]
		if d != t.Direction {
			return d
		}
	}
	return DirDown
}

// updateBullets advances bullets and drops those leaving the field or
// whose owning tank no longer exists (orphans). In-place filtering keeps
// the pass allocation-free.
func (e *Engine) updateBullets(delta float64) {
	n := 0
	for _, b := range e.bullets {
		b.advance(delta)
		if !inField(b.Rect()) {
			continue
		}
		if _, ok := e.tanks[b.TankID]; !ok {
			continue
		}
		e.bullets[n] = b
		n++
	}
	e.bullets = e.bullets[:n]
}

// bulletWallCollisions marks all brick/steel cells each bullet overlaps,
// then applies destruction and removes spent bullets. Steel is destroyed
// only by power >= 3; the eagle breaking is terminal for the room.
func (e *Engine) bulletWallCollisions() (destroyedBricks, destroyedSteels []int) {
	brickSet := map[int]struct{}{}
	steelSet := map[int]struct{}{}

	n := 0
	for _, b := range e.bullets {
		bricks, steels, eagle := e.tiles.WallHits(b.Rect())
		hit := eagle || len(bricks) > 0 || len(steels) > 0

		for _, i := range bricks {
			brickSet[i] = struct{}{}
		}
		if b.Power >= 3 {
			for _, i := range steels {
				steelSet[i] = struct{}{}
			}
		}
		if eagle {
			e.tiles.EagleBroken = true
		}

		if hit {
			continue
		}
		e.bullets[n] = b
		n++
	}
	e.bullets = e.bullets[:n]

	for i := range brickSet {
		e.tiles.DestroyBrick(i)
		destroyedBricks = append(destroyedBricks, i)
	}
	for i := range steelSet {
		e.tiles.DestroySteel(i)
		destroyedSteels = append(destroyedSteels, i)
	}
	return destroyedBricks, destroyedSteels
}

// bulletTankCollisions applies the damage policy: player-vs-player bullets
// are suppressed, bot bullets pass through bots, helmets absorb bot fire.
func (e *Engine) bulletTankCollisions() {
	n := 0
	for _, b := range e.bullets {
		owner := e.tanks[b.TankID]
		consumed := false

		for _, id := range e.order {
			t := e.tanks[id]
			if !t.Alive || t.ID == b.TankID {
				continue
			}
			if !Overlap(b.Rect(), t.Rect(), 0) {
				continue
			}

			if owner.Side == SideBot && t.Side == SideBot {
				continue // passes through
			}

			consumed = true
			switch {
			case owner.Side == SidePlayer && t.Side == SidePlayer:
				// friendly fire suppressed
			case owner.Side == SideBot && t.Side == SidePlayer && t.HelmetDuration > 0:
				// helmet absorbs the hit
			default:
				e.applyDamage(owner, t)
			}
			break
		}

		if consumed {
			continue
		}
		e.bullets[n] = b
		n++
	}
	e.bullets = e.bullets[:n]
}

// applyDamage decrements hp and handles death: score for bot kills, lives
// and respawn scheduling for player deaths. Dead tanks stay in the world
// for one more snapshot before reapDead removes them.
func (e *Engine) applyDamage(owner, t *Tank) {
	t.HP--
	if t.HP > 0 {
		return
	}
	t.Alive = false

	if t.Side == SideBot {
		if slot, ok := e.slotOfTank(owner.ID); ok {
			e.slots[slot].score += botScore[t.Level]
		}
		return
	}

	if slot, ok := e.slotOfTank(t.ID); ok {
		st := &e.slots[slot]
		st.activeTankID = 0
		st.lives--
		st.pendingRespawn = st.lives > 0
	}
}

func (e *Engine) slotOfTank(tankID int) (Slot, bool) {
	for slot := range e.slots {
		if e.slots[slot].activeTankID == tankID {
			return Slot(slot), true
		}
	}
	return 0, false
}

// checkGameOver evaluates the three terminal conditions.
func (e *Engine) checkGameOver(now time.Time) {
	if e.gameOver {
		return
	}

	if e.tiles.EagleBroken {
		e.finish(StatusLost, GameOver{
			Winner:    "draw",
			Reason:    "eagle_destroyed",
			Timestamp: now.UnixMilli(),
		})
		return
	}

	hostOut := e.slots[SlotHost].lives <= 0 && e.slots[SlotHost].activeTankID == 0
	guestOut := e.slots[SlotGuest].lives <= 0 && e.slots[SlotGuest].activeTankID == 0
	if hostOut && guestOut {
		e.finish(StatusLost, GameOver{
			Winner:    "draw",
			Reason:    "players_destroyed",
			Timestamp: now.UnixMilli(),
		})
		return
	}

	if e.spawner.Drained() {
		for _, id := range e.order {
			if t := e.tanks[id]; t.Side == SideBot && t.Alive {
				return
			}
		}
		e.finish(StatusWon, GameOver{
			Winner:    "draw",
			Reason:    "all_bots_destroyed",
			Timestamp: now.UnixMilli(),
		})
	}
}

// produceSnapshot publishes the tick's world state through the triple
// buffer. The optional destroyed lists feed the map_changes addendum.
func (e *Engine) produceSnapshot(destroyed ...[]int) {
	snap := e.pool.acquireWrite()

	for _, id := range e.order {
		t := e.tanks[id]
		snap.Tanks = append(snap.Tanks, TankSnapshot{
			ID:          t.ID,
			X:           t.X,
			Y:           t.Y,
			Direction:   t.Direction,
			Moving:      t.Moving,
			Alive:       t.Alive,
			Side:        t.Side,
			Level:       t.Level,
			Color:       t.Color,
			HP:          t.HP,
			Helmet:      t.HelmetDuration,
			Frozen:      t.FrozenTimeout,
			Cooldown:    t.Cooldown,
			WithPowerUp: t.WithPowerUp,
		})
	}

	for _, b := range e.bullets {
		snap.Bullets = append(snap.Bullets, BulletSnapshot{
			ID:        b.ID,
			X:         b.X,
			Y:         b.Y,
			Direction: b.Direction,
			Speed:     b.Speed,
			TankID:    b.TankID,
			Power:     b.Power,
		})
	}

	copy(snap.Map.Bricks, e.tiles.Bricks[:])
	copy(snap.Map.Steels, e.tiles.Steels[:])
	snap.Map.EagleBroken = e.tiles.EagleBroken

	snap.Players = PlayersSnapshot{
		Host: SlotSnapshot{
			Lives:        e.slots[SlotHost].lives,
			Score:        e.slots[SlotHost].score,
			ActiveTankID: e.slots[SlotHost].activeTankID,
		},
		Guest: SlotSnapshot{
			Lives:        e.slots[SlotGuest].lives,
			Score:        e.slots[SlotGuest].score,
			ActiveTankID: e.slots[SlotGuest].activeTankID,
		},
	}

	snap.RemainingBots = e.spawner.Remaining()
	snap.GameStatus = e.status

	if len(destroyed) > 0 {
		snap.BricksDestroyed = append(snap.BricksDestroyed, destroyed[0]...)
	}
	if len(destroyed) > 1 {
		snap.SteelsDestroyed = append(snap.SteelsDestroyed, destroyed[1]...)
	}

	e.pool.publishWrite()
}
