// Package id issues ULIDs for trade records.
package id

import (
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues ULIDs stamped with a caller-supplied time. Entropy comes
// from a seeded PRNG wrapped in ulid.Monotonic, so a generator replayed with
// the same seed over the same timestamps yields the same IDs, and IDs within
// one millisecond stay lexicographically increasing.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	entropy io.Reader
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// At returns a ULID string for t.
func (g *Generator) At(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		// Only fails for times outside the ULID range or on entropy overflow.
		panic(err)
	}
	return id.String()
}
