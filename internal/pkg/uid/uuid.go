package uid

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// StringID generates account identifiers.
type StringID interface {
	Generate() string
}

// UUID generates version 7 UUIDs. Their leading timestamp makes IDs minted
// later sort after earlier ones, which keeps the final ordering tie-break
// stable across stores.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Sequence yields prefix-1, prefix-2, ... and is safe for concurrent use.
// Stores use it where reproducible identifiers matter more than uniqueness
// across processes.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) Generate() string {
	return s.prefix + "-" + strconv.FormatUint(s.n.Add(1), 10)
}
