// Package rand produces short random identifiers for correlating requests
// between the client and server logs.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RequestIDLength is the length of ids returned by NewRequestID.
const RequestIDLength = 16

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var source = newSource()

// lockedSource is a PCG generator seeded once from crypto/rand.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSource() *lockedSource {
	seed := make([]byte, 16)
	if _, err := cryptorand.Read(seed); err != nil {
		panic("rand: seeding failed: " + err.Error())
	}
	return &lockedSource{
		//nolint:gosec // ids are for log correlation only
		rng: rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))),
	}
}

func (s *lockedSource) fill(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range buf {
		buf[i] = charset[s.rng.IntN(len(charset))]
	}
}

// NewRequestID returns a random base62 string of RequestIDLength characters.
func NewRequestID() string {
	buf := make([]byte, RequestIDLength)
	source.fill(buf)
	return string(buf)
}
