package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Factory creates an empty item of a registered shape.
type Factory func() ItemData

// Registration binds one or more Type discriminators to a factory.
type Registration struct {
	Discriminators []string
	New            Factory
}

// Registry selects an item shape from its Type discriminator.
// It is immutable after NewRegistry returns.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry validates and indexes registrations. Each registration needs a
// factory and at least one discriminator, and a discriminator may only be
// claimed once.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := &Registry{factories: make(map[string]Factory)}
	for i, reg := range regs {
		if reg.New == nil {
			return nil, fmt.Errorf("registration %d: missing factory", i)
		}
		if len(reg.Discriminators) == 0 {
			return nil, fmt.Errorf("registration %d: no discriminators", i)
		}
		for _, d := range reg.Discriminators {
			if d == "" {
				return nil, fmt.Errorf("registration %d: empty discriminator", i)
			}
			if _, dup := r.factories[d]; dup {
				return nil, fmt.Errorf("registration %d: discriminator %q already registered", i, d)
			}
			r.factories[d] = reg.New
		}
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(regs ...Registration) *Registry {
	r, err := NewRegistry(regs...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry knows every item subtype produced by the built-in exporters.
var DefaultRegistry = MustRegistry(
	Registration{
		Discriminators: []string{"Schematic"},
		New:            func() ItemData { return &SchematicItemData{} },
	},
)

// Known reports whether a discriminator has a registered shape.
func (r *Registry) Known(discriminator string) bool {
	_, ok := r.factories[discriminator]
	return ok
}

// New returns an empty item for the discriminator, or the base shape when
// the discriminator is unknown.
func (r *Registry) New(discriminator string) ItemData {
	if f, ok := r.factories[discriminator]; ok {
		return f()
	}
	return &NamedItemData{}
}

// Decode reads one item from JSON, choosing the shape from its Type field.
func (r *Registry) Decode(data []byte) (ItemData, error) {
	var peek struct {
		Type string `json:"Type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if peek.Type == "" {
		return nil, errors.New("decode item: missing Type")
	}

	item := r.New(peek.Type)
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("decode %s item: %w", peek.Type, err)
	}
	return item, nil
}
