package game

// Rect is an axis-aligned rectangle in field units.
type Rect struct {
	X, Y, W, H float64
}

// between reports a-t <= v <= b+t. The threshold is signed: a negative t
// shrinks the accepted interval, which is how grazing contact is excluded.
func between(a, v, b, t float64) bool {
	return a-t <= v && v <= b+t
}

// Overlap reports whether rectangles a and b intersect with the given
// signed threshold. t = 0 is exact overlap; t = WallThreshold lets tanks
// sit flush against walls.
func Overlap(a, b Rect, t float64) bool {
	return between(b.X-a.W, a.X, b.X+b.W, t) &&
		between(b.Y-a.H, a.Y, b.Y+b.H, t)
}

// TankRect returns the bounding box of a tank at (x, y).
func TankRect(x, y float64) Rect {
	return Rect{X: x, Y: y, W: TankSize, H: TankSize}
}

// BulletRect returns the bounding box of a bullet at (x, y).
func BulletRect(x, y float64) Rect {
	return Rect{X: x, Y: y, W: BulletSize, H: BulletSize}
}

// cellRange maps a rectangle span onto grid cell indices of the given cell
// size, clamped to [0, cols). Iteration over the result is constant-bounded
// because rectangle sizes are fixed (tank 16, bullet 3).
func cellRange(lo, hi float64, cellSize, cols int) (int, int) {
	first := int(lo) / cellSize
	last := int(hi) / cellSize
	if first < 0 {
		first = 0
	}
	if last >= cols {
		last = cols - 1
	}
	return first, last
}

// inField reports whether r lies fully inside the battlefield.
func inField(r Rect) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.W <= FieldSize && r.Y+r.H <= FieldSize
}

// clampToField clamps a top-left position so a box of the given size stays
// inside the battlefield.
func clampToField(v, size float64) float64 {
	if v < 0 {
		return 0
	}
	if max := FieldSize - size; v > max {
		return max
	}
	return v
}
