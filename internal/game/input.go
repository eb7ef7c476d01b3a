package game

import "sync/atomic"

// PlayerInput is one intent frame from a client: desired facing, whether
// the tank is moving, and whether the trigger is held.
type PlayerInput struct {
	Direction Direction // empty means "keep current facing"
	Moving    bool
	Firing    bool
	Timestamp int64
}

// inputCell is a latest-value mailbox written by the transport goroutine
// and read by the engine at the top of each tick. Stale frames are
// collapsed: only the newest write matters, so re-sent identical inputs
// are idempotent.
type inputCell struct {
	v atomic.Pointer[PlayerInput]
}

// Store publishes a new input frame, replacing any unread one.
func (c *inputCell) Store(in PlayerInput) {
	c.v.Store(&in)
}

// Load returns the latest input frame, if any.
func (c *inputCell) Load() (PlayerInput, bool) {
	p := c.v.Load()
	if p == nil {
		return PlayerInput{}, false
	}
	return *p, true
}
