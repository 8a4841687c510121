package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 strings so drafts sort by
// creation in storage.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return v.String(), nil
}

// SequenceGenerator returns a fixed list of ids in order, for tests and
// deterministic fixtures.
type SequenceGenerator struct {
	ids  []string
	next int
}

func NewSequenceGenerator(ids ...string) *SequenceGenerator {
	return &SequenceGenerator{ids: ids}
}

func (g *SequenceGenerator) NewID() (string, error) {
	if g.next >= len(g.ids) {
		return "", fmt.Errorf("sequence exhausted after %d ids", len(g.ids))
	}
	v := g.ids[g.next]
	g.next++
	return v, nil
}
