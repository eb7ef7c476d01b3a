package game

// Field geometry. The battlefield is a 13x13 grid of 16-unit blocks.
// Bricks subdivide each block 4x4 (4-unit cells), steels 2x2 (8-unit cells).
const (
	FieldBlockSize = 16
	FieldBlocks    = 13
	FieldSize      = FieldBlockSize * FieldBlocks // 208

	BrickCellSize = 4
	BrickCols     = FieldSize / BrickCellSize // 52
	BrickCount    = BrickCols * BrickCols

	SteelCellSize = 8
	SteelCols     = FieldSize / SteelCellSize // 26
	SteelCount    = SteelCols * SteelCols

	TankSize   = 16
	BulletSize = 3
)

// Speeds are in units per millisecond; the tick integrates speed * delta.
const (
	PlayerSpeed   = 0.045
	BotBasicSpeed = 0.030
	BotFastSpeed  = 0.060
	BotPowerSpeed = 0.045
	BotArmorSpeed = 0.030
	BulletSpeed   = 0.180
)

const (
	FireCooldownMs    = 300
	SpawnInvincibleMs = 2000

	// Tank-vs-wall overlap tolerance. Slightly negative so a tank flush
	// against a wall does not register as colliding.
	WallThreshold = -0.01
)

// Bot spawn schedule.
const (
	BotQueueSize     = 20
	BotInitialBurst  = 4
	BotSpawnEveryMs  = 3000
	PlayerStartLives = 3
)

// Spawn positions. The bot cycle is scaled into the 208-unit field; the
// players sit on the bottom row (y = FieldSize - TankSize).
var (
	BotSpawnPositions = [3][2]float64{{0, 0}, {96, 0}, {192, 0}}

	HostSpawnX, HostSpawnY   = 64.0, 192.0
	GuestSpawnX, GuestSpawnY = 128.0, 192.0
)

// Direction is one of the four cardinal facings.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Horizontal reports whether d moves along the x axis.
func (d Direction) Horizontal() bool {
	return d == DirLeft || d == DirRight
}

// Perpendicular reports whether d and o lie on different axes.
func (d Direction) Perpendicular(o Direction) bool {
	return d.Horizontal() != o.Horizontal()
}

// Side distinguishes player tanks from AI tanks.
type Side string

const (
	SidePlayer Side = "player"
	SideBot    Side = "bot"
)

// TankLevel selects speed, hp and scoring for a tank.
type TankLevel string

const (
	LevelBasic TankLevel = "basic"
	LevelFast  TankLevel = "fast"
	LevelPower TankLevel = "power"
	LevelArmor TankLevel = "armor"
)

// TankColor is the visual identity of a tank; player slots are fixed
// (host yellow, guest green).
type TankColor string

const (
	ColorYellow TankColor = "yellow"
	ColorGreen  TankColor = "green"
	ColorSilver TankColor = "silver"
	ColorRed    TankColor = "red"
)

// Score awarded per destroyed bot, by level.
var botScore = map[TankLevel]int{
	LevelBasic: 100,
	LevelFast:  200,
	LevelPower: 300,
	LevelArmor: 400,
}

// speedFor returns the movement speed for a tank of the given side/level.
func speedFor(side Side, level TankLevel) float64 {
	if side == SidePlayer {
		return PlayerSpeed
	}
	switch level {
	case LevelFast:
		return BotFastSpeed
	case LevelPower:
		return BotPowerSpeed
	case LevelArmor:
		return BotArmorSpeed
	default:
		return BotBasicSpeed
	}
}

// hpFor returns starting hit points by level: armor tanks take 4 hits.
func hpFor(level TankLevel) int {
	if level == LevelArmor {
		return 4
	}
	return 1
}
