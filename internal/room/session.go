package room

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newRoomCode returns a 6-character uppercase alphanumeric room code.
func newRoomCode() string {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			panic(err) // crypto/rand failure is unrecoverable
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}

// newSessionID returns an opaque 32-hex-character session token. The token
// binds a player slot across reconnects, so it must be unguessable.
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
