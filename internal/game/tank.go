package game

// Tank is one vehicle in the simulation, player-driven or AI-driven.
// All mutation happens inside the engine tick.
type Tank struct {
	ID        int
	X, Y      float64
	Direction Direction
	Moving    bool
	Alive     bool

	Side  Side
	Level TankLevel
	Color TankColor

	HP int

	// Millisecond countdowns, decremented by delta each tick.
	HelmetDuration float64
	FrozenTimeout  float64
	Cooldown       float64

	WithPowerUp bool

	// Bot steering state: counts down to the next direction impulse.
	steerTimer float64
}

// Rect returns the tank's bounding box.
func (t *Tank) Rect() Rect {
	return TankRect(t.X, t.Y)
}

// Speed returns the tank's movement speed in units per millisecond.
func (t *Tank) Speed() float64 {
	return speedFor(t.Side, t.Level)
}

// CanFire reports whether the fire gate is open.
func (t *Tank) CanFire() bool {
	return t.Alive && t.Cooldown <= 0
}

// muzzle returns the spawn position of a bullet leaving the tank's
// front-center, offset outward by the bullet size along the facing.
func (t *Tank) muzzle() (float64, float64) {
	cx := t.X + (TankSize-BulletSize)/2.0
	cy := t.Y + (TankSize-BulletSize)/2.0
	switch t.Direction {
	case DirUp:
		return cx, t.Y - BulletSize
	case DirDown:
		return cx, t.Y + TankSize
	case DirLeft:
		return t.X - BulletSize, cy
	default: // DirRight
		return t.X + TankSize, cy
	}
}

// tickCountdowns advances the millisecond countdowns, clamped at zero.
func (t *Tank) tickCountdowns(delta float64) {
	if t.Cooldown > 0 {
		if t.Cooldown -= delta; t.Cooldown < 0 {
			t.Cooldown = 0
		}
	}
	if t.HelmetDuration > 0 {
		if t.HelmetDuration -= delta; t.HelmetDuration < 0 {
			t.HelmetDuration = 0
		}
	}
	if t.FrozenTimeout > 0 {
		if t.FrozenTimeout -= delta; t.FrozenTimeout < 0 {
			t.FrozenTimeout = 0
		}
	}
}

// floor8, ceil8 and round8 snap a coordinate to the 8-unit alignment grid
// used for perpendicular turns.
func floor8(v float64) float64 {
	return float64(int(v/8) * 8)
}

func ceil8(v float64) float64 {
	f := floor8(v)
	if f == v {
		return v
	}
	return f + 8
}

func round8(v float64) float64 {
	f := floor8(v)
	if v-f < 4 {
		return f
	}
	return f + 8
}
