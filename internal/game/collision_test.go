package game

import "testing"

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		t    float64
		want bool
	}{
		{
			name: "clear overlap",
			a:    Rect{X: 0, Y: 0, W: 16, H: 16},
			b:    Rect{X: 8, Y: 8, W: 16, H: 16},
			t:    0,
			want: true,
		},
		{
			name: "disjoint",
			a:    Rect{X: 0, Y: 0, W: 16, H: 16},
			b:    Rect{X: 40, Y: 40, W: 16, H: 16},
			t:    0,
			want: false,
		},
		{
			name: "edge touch counts at zero threshold",
			a:    Rect{X: 0, Y: 0, W: 16, H: 16},
			b:    Rect{X: 16, Y: 0, W: 16, H: 16},
			t:    0,
			want: true,
		},
		{
			name: "edge touch excluded at wall threshold",
			a:    Rect{X: 0, Y: 0, W: 16, H: 16},
			b:    Rect{X: 16, Y: 0, W: 16, H: 16},
			t:    WallThreshold,
			want: false,
		},
		{
			name: "tiny penetration passes wall threshold",
			a:    Rect{X: 0.1, Y: 0, W: 16, H: 16},
			b:    Rect{X: 16, Y: 0, W: 16, H: 16},
			t:    WallThreshold,
			want: true,
		},
		{
			name: "bullet inside tank",
			a:    BulletRect(10, 10),
			b:    TankRect(0, 0),
			t:    0,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.a, tt.b, tt.t); got != tt.want {
				t.Errorf("Overlap(%+v, %+v, %v) = %v, want %v", tt.a, tt.b, tt.t, got, tt.want)
			}
			// Overlap is symmetric
			if got := Overlap(tt.b, tt.a, tt.t); got != tt.want {
				t.Errorf("Overlap(%+v, %+v, %v) = %v, want %v (swapped)", tt.b, tt.a, tt.t, got, tt.want)
			}
		})
	}
}

func TestClampToField(t *testing.T) {
	tests := []struct {
		v, size, want float64
	}{
		{-5, TankSize, 0},
		{0, TankSize, 0},
		{100, TankSize, 100},
		{192, TankSize, 192},
		{200, TankSize, 192},
		{300, BulletSize, 205},
	}
	for _, tt := range tests {
		if got := clampToField(tt.v, tt.size); got != tt.want {
			t.Errorf("clampToField(%v, %v) = %v, want %v", tt.v, tt.size, got, tt.want)
		}
	}
}

func TestInField(t *testing.T) {
	if !inField(TankRect(0, 0)) {
		t.Error("tank at origin should be in field")
	}
	if !inField(TankRect(192, 192)) {
		t.Error("tank at far corner should be in field")
	}
	if inField(TankRect(193, 0)) {
		t.Error("tank past right edge should be out of field")
	}
	if inField(BulletRect(-1, 0)) {
		t.Error("bullet past left edge should be out of field")
	}
	if inField(BulletRect(0, 206)) {
		t.Error("bullet past bottom edge should be out of field")
	}
}

func TestCellRange(t *testing.T) {
	tests := []struct {
		lo, hi     float64
		cellSize   int
		cols       int
		wantF      int
		wantL      int
	}{
		{0, 3, BrickCellSize, BrickCols, 0, 0},
		{0, 16, BrickCellSize, BrickCols, 0, 4},
		{17, 33, BrickCellSize, BrickCols, 4, 8},
		{200, 230, BrickCellSize, BrickCols, 50, 51}, // clamped to last column
		{0, 16, SteelCellSize, SteelCols, 0, 2},
	}
	for _, tt := range tests {
		f, l := cellRange(tt.lo, tt.hi, tt.cellSize, tt.cols)
		if f != tt.wantF || l != tt.wantL {
			t.Errorf("cellRange(%v, %v, %d, %d) = (%d, %d), want (%d, %d)",
				tt.lo, tt.hi, tt.cellSize, tt.cols, f, l, tt.wantF, tt.wantL)
		}
	}
}
