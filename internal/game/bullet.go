package game

// Bullet is a projectile in flight. It stores only the owning tank's id;
// the owner is resolved at use time, and a bullet whose owner is gone is
// orphaned and destroyed.
type Bullet struct {
	ID        int
	X, Y      float64
	Direction Direction
	Speed     float64 // units per millisecond
	TankID    int
	Power     int // 1..4; >= 3 destroys steel
}

// Rect returns the bullet's bounding box.
func (b *Bullet) Rect() Rect {
	return BulletRect(b.X, b.Y)
}

// advance moves the bullet along its direction by speed * delta.
func (b *Bullet) advance(delta float64) {
	d := b.Speed * delta
	switch b.Direction {
	case DirUp:
		b.Y -= d
	case DirDown:
		b.Y += d
	case DirLeft:
		b.X -= d
	case DirRight:
		b.X += d
	}
}
