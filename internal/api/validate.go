package api

import (
	"errors"
	"math"

	"tank-arena/internal/game"
	"tank-arena/internal/protocol"
)

var (
	errInputType      = errors.New("input type must be \"state\"")
	errInputDirection = errors.New("direction must be up, down, left or right")
	errInputTimestamp = errors.New("timestamp must be a finite non-negative number")
	errRoomCode       = errors.New("room code must be 6 uppercase alphanumeric characters")
)

// ValidateInput checks a player_input payload before it reaches the engine.
// A malformed frame never mutates game state.
func ValidateInput(req protocol.InputRequest) error {
	if req.Type != "state" {
		return errInputType
	}
	if req.Direction != nil && !game.Direction(*req.Direction).Valid() {
		return errInputDirection
	}
	if math.IsNaN(req.Timestamp) || math.IsInf(req.Timestamp, 0) || req.Timestamp < 0 {
		return errInputTimestamp
	}
	return nil
}

// ValidateRoomCode checks the join_room room id shape.
func ValidateRoomCode(code string) error {
	if len(code) != 6 {
		return errRoomCode
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return errRoomCode
		}
	}
	return nil
}
