package game

import (
	"fmt"
	"strconv"
	"strings"
)

// TileMap holds the destructible terrain of one room as dense boolean
// grids: bricks on a 52x52 grid of 4-unit cells, steels on a 26x26 grid of
// 8-unit cells. Destruction only ever flips true -> false; the arrays keep
// their length for the room's lifetime.
type TileMap struct {
	Bricks [BrickCount]bool
	Steels [SteelCount]bool

	EagleX, EagleY float64
	EagleBroken    bool
	hasEagle       bool
}

// ParseStage parses a row-major stage descriptor into a TileMap.
//
// The descriptor is 13x13 whitespace-separated tokens, one per block:
//
//	B<hex>  brick block; up to 4 hex digits form a 16-bit 4x4 sub-bitmap
//	        (bit r*4+c, LSB first, marks sub-cell row r col c)
//	T<hex>  steel block; one hex digit forms a 4-bit 2x2 sub-bitmap
//	E       the eagle
//	X or .  empty block
func ParseStage(descriptor string) (*TileMap, error) {
	tokens := strings.Fields(descriptor)
	if len(tokens) != FieldBlocks*FieldBlocks {
		return nil, fmt.Errorf("stage: want %d block tokens, got %d", FieldBlocks*FieldBlocks, len(tokens))
	}

	m := &TileMap{}
	for i, tok := range tokens {
		row, col := i/FieldBlocks, i%FieldBlocks
		switch {
		case tok == "X" || tok == ".":
			// empty
		case tok == "E":
			if m.hasEagle {
				return nil, fmt.Errorf("stage: duplicate eagle at block (%d,%d)", row, col)
			}
			m.hasEagle = true
			m.EagleX = float64(col * FieldBlockSize)
			m.EagleY = float64(row * FieldBlockSize)
		case tok[0] == 'B':
			bits, err := parseBitmap(tok[1:], 4)
			if err != nil {
				return nil, fmt.Errorf("stage: block (%d,%d): %w", row, col, err)
			}
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					if bits&(1<<(r*4+c)) != 0 {
						m.Bricks[(row*4+r)*BrickCols+col*4+c] = true
					}
				}
			}
		case tok[0] == 'T':
			bits, err := parseBitmap(tok[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("stage: block (%d,%d): %w", row, col, err)
			}
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					if bits&(1<<(r*2+c)) != 0 {
						m.Steels[(row*2+r)*SteelCols+col*2+c] = true
					}
				}
			}
		default:
			return nil, fmt.Errorf("stage: unknown token %q at block (%d,%d)", tok, row, col)
		}
	}

	if !m.hasEagle {
		return nil, fmt.Errorf("stage: no eagle block")
	}
	return m, nil
}

func parseBitmap(hex string, maxDigits int) (uint64, error) {
	if len(hex) == 0 || len(hex) > maxDigits {
		return 0, fmt.Errorf("bitmap %q: want 1..%d hex digits", hex, maxDigits)
	}
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("bitmap %q: %w", hex, err)
	}
	return v, nil
}

// BrickAt reports whether brick cell i is present.
func (m *TileMap) BrickAt(i int) bool {
	return i >= 0 && i < BrickCount && m.Bricks[i]
}

// SteelAt reports whether steel cell i is present.
func (m *TileMap) SteelAt(i int) bool {
	return i >= 0 && i < SteelCount && m.Steels[i]
}

// DestroyBrick clears brick cell i. Clearing is one-way.
func (m *TileMap) DestroyBrick(i int) {
	if i >= 0 && i < BrickCount {
		m.Bricks[i] = false
	}
}

// DestroySteel clears steel cell i.
func (m *TileMap) DestroySteel(i int) {
	if i >= 0 && i < SteelCount {
		m.Steels[i] = false
	}
}

// EagleRect returns the eagle's bounding box.
func (m *TileMap) EagleRect() Rect {
	return Rect{X: m.EagleX, Y: m.EagleY, W: FieldBlockSize, H: FieldBlockSize}
}

func brickCellRect(i int) Rect {
	return Rect{
		X: float64(i % BrickCols * BrickCellSize),
		Y: float64(i / BrickCols * BrickCellSize),
		W: BrickCellSize,
		H: BrickCellSize,
	}
}

func steelCellRect(i int) Rect {
	return Rect{
		X: float64(i % SteelCols * SteelCellSize),
		Y: float64(i / SteelCols * SteelCellSize),
		W: SteelCellSize,
		H: SteelCellSize,
	}
}

// CollidesWalls reports whether r overlaps any live brick or steel cell,
// or the eagle block, using the signed threshold t. Only the grid cells
// intersecting r's bounding box are visited.
func (m *TileMap) CollidesWalls(r Rect, t float64) bool {
	c0, c1 := cellRange(r.X, r.X+r.W, BrickCellSize, BrickCols)
	r0, r1 := cellRange(r.Y, r.Y+r.H, BrickCellSize, BrickCols)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			i := row*BrickCols + col
			if m.Bricks[i] && Overlap(r, brickCellRect(i), t) {
				return true
			}
		}
	}

	c0, c1 = cellRange(r.X, r.X+r.W, SteelCellSize, SteelCols)
	r0, r1 = cellRange(r.Y, r.Y+r.H, SteelCellSize, SteelCols)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			i := row*SteelCols + col
			if m.Steels[i] && Overlap(r, steelCellRect(i), t) {
				return true
			}
		}
	}

	return Overlap(r, m.EagleRect(), t)
}

// WallHits collects the brick and steel cell indices overlapping r with
// exact (t = 0) overlap, plus whether the eagle was struck. Used by the
// bullet-vs-wall pass; nothing is destroyed here.
func (m *TileMap) WallHits(r Rect) (bricks, steels []int, eagle bool) {
	c0, c1 := cellRange(r.X, r.X+r.W, BrickCellSize, BrickCols)
	r0, r1 := cellRange(r.Y, r.Y+r.H, BrickCellSize, BrickCols)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			i := row*BrickCols + col
			if m.Bricks[i] && Overlap(r, brickCellRect(i), 0) {
				bricks = append(bricks, i)
			}
		}
	}

	c0, c1 = cellRange(r.X, r.X+r.W, SteelCellSize, SteelCols)
	r0, r1 = cellRange(r.Y, r.Y+r.H, SteelCellSize, SteelCols)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			i := row*SteelCols + col
			if m.Steels[i] && Overlap(r, steelCellRect(i), 0) {
				steels = append(steels, i)
			}
		}
	}

	eagle = !m.EagleBroken && Overlap(r, m.EagleRect(), 0)
	return bricks, steels, eagle
}

// DefaultStage is the built-in map: brick lanes, a steel mid-line, and the
// eagle at bottom-center behind a brick shield.
const DefaultStage = `
X     X     X     X     X     X     X     X     X     X     X     X     X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     X     X     X     X     X     X     X     X     X     X     X     X
Tf    X     Bffff X     X     X     Tf    X     X     X     Bffff X     Tf
X     X     X     X     X     X     X     X     X     X     X     X     X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X     Bffff X
X     X     X     X     X     Bffff Bffff Bffff X     X     X     X     X
X     X     X     X     X     Bffff E     Bffff X     X     X     X     X
`

// MustDefaultMap parses DefaultStage; the descriptor is a compile-time
// constant so failure is a programming error.
func MustDefaultMap() *TileMap {
	m, err := ParseStage(DefaultStage)
	if err != nil {
		panic(err)
	}
	return m
}
