// Package idgen wraps UUID generation behind a local name. Library layer:
// no configuration access, no knowledge of other layers.
package idgen

import "github.com/google/uuid"

// Generator produces unique identifiers.
type Generator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 identifiers.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID-backed Generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new random UUID string.
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}
