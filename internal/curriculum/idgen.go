package curriculum

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// EntityKind tags the draft token with the entity it was minted for.
type EntityKind string

const (
	KindSection  EntityKind = "s"
	KindLesson   EntityKind = "l"
	KindQuestion EntityKind = "q"
	KindChoice   EntityKind = "c"
)

// IDGenerator produces draft tokens for entities created during an editing session.
type IDGenerator interface {
	NewID(kind EntityKind) ID
}

// SequenceGenerator mints "temp-<kind><n>" tokens from a monotonic counter.
// Deterministic, so tests can predict ids.
type SequenceGenerator struct {
	next atomic.Uint64
}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

func (g *SequenceGenerator) NewID(kind EntityKind) ID {
	return DraftID(fmt.Sprintf("temp-%s%d", kind, g.next.Add(1)))
}

// UUIDGenerator mints collision-free tokens; used for long-lived sessions that
// survive restarts and may be restored into a fresh editor.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(kind EntityKind) ID {
	return DraftID(fmt.Sprintf("temp-%s-%s", kind, uuid.NewString()))
}
