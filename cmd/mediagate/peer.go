package main

import (
	"crypto/rand"
	"encoding/binary"
)

// randomID produces the random_id MTProto requires on message-mutating
// calls like forwardMessages, where any unique int64 per call suffices.
func randomID() int64 {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return int64(binary.BigEndian.Uint64(buf[:]))
}
