package dsl

import (
	"fmt"

	"github.com/aretw0/parley/pkg/chart"
)

// Builder manages the chart construction. It is the NodeBuilder of the root.
type Builder struct {
	*NodeBuilder
}

// New creates a builder whose root node has the given key.
func New(key string) *Builder {
	return &Builder{NodeBuilder: &NodeBuilder{def: &chart.Def{Key: key}}}
}

// Initial sets the root's default child. It shadows NodeBuilder.Initial so
// that dsl.New(key).Initial(child) still yields a *Builder.
func (b *Builder) Initial(key string) *Builder {
	b.NodeBuilder.Initial(key)
	return b
}

// Alias makes the root addressable by an extra "#alias".
func (b *Builder) Alias(alias string) *Builder {
	b.NodeBuilder.Alias(alias)
	return b
}

// Parallel makes every child of the root an active region.
func (b *Builder) Parallel() *Builder {
	b.NodeBuilder.Parallel()
	return b
}

// Build validates the definition and compiles it into a chart.
func (b *Builder) Build() (*chart.Chart, error) {
	c, err := chart.New(b.def)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart %q: %w", b.def.Key, err)
	}
	return c, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *chart.Chart {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
