package storage

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator assigns entity ids.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator issues time-sortable UUIDv7 ids.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator issues prefix-1, prefix-2, ... for deterministic tests.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
