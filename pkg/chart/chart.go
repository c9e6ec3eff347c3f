// Package chart turns nested state definitions into an immutable arena of
// nodes addressed by id.
//
// Node ids are full dot paths from the root ("appointment.main.user").
// Transition targets are written as references and resolved once, at
// construction:
//
//	#alias.child   alias-qualified (the root key is always an alias)
//	.child.path    relative to the declaring node (internal transition)
//	sibling.path   relative to the declaring node's parent
//
// A Chart is safe for concurrent use by any number of interpreters.
package chart

import (
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Chart is a validated, read-only statechart.
type Chart struct {
	root    *domain.StateNode
	nodes   map[string]*domain.StateNode
	order   []*domain.StateNode
	aliases map[string]string
}

// New flattens and validates a definition tree. All problems are reported
// at once as *domain.ChartErrors.
func New(def *Def) (*Chart, error) {
	b := &builder{
		c: &Chart{
			nodes:   make(map[string]*domain.StateNode),
			aliases: make(map[string]string),
		},
		defs: make(map[string]*Def),
	}
	if def == nil || def.Key == "" {
		return nil, &domain.ChartError{Reason: "root node must have a key"}
	}
	if strings.ContainsAny(def.Key, ". #") {
		return nil, &domain.ChartError{NodeID: def.Key, Reason: "key must not contain '.', '#' or spaces"}
	}

	b.c.root = b.flatten(def, nil, 0)
	b.c.aliases[def.Key] = b.c.root.ID
	b.link()

	if len(b.errs) > 0 {
		return nil, &domain.ChartErrors{Errors: b.errs}
	}
	return b.c, nil
}

// MustNew is like New but panics on error. It is meant for charts declared
// in code and exercised by tests.
func MustNew(def *Def) *Chart {
	c, err := New(def)
	if err != nil {
		panic(err)
	}
	return c
}

// Root returns the root node.
func (c *Chart) Root() *domain.StateNode {
	return c.root
}

// Node returns the node with the given id, or nil.
func (c *Chart) Node(id string) *domain.StateNode {
	return c.nodes[id]
}

// Nodes returns every node in document order.
func (c *Chart) Nodes() []*domain.StateNode {
	return c.order
}

// Len returns the number of nodes.
func (c *Chart) Len() int {
	return len(c.order)
}

// Lookup resolves an absolute reference: a full id or "#alias[.path]".
func (c *Chart) Lookup(ref string) (*domain.StateNode, bool) {
	if n, ok := c.nodes[ref]; ok {
		return n, true
	}
	if strings.HasPrefix(ref, "#") {
		n := c.resolveAlias(ref[1:])
		return n, n != nil
	}
	return nil, false
}

// Resolve resolves a target reference as written on the node with id from.
func (c *Chart) Resolve(from, ref string) (*domain.StateNode, bool) {
	src := c.nodes[from]
	if src == nil {
		return nil, false
	}
	n := c.resolve(src, ref)
	return n, n != nil
}

// Ancestors returns the proper ancestors of id, innermost first.
func (c *Chart) Ancestors(id string) []string {
	var out []string
	n := c.nodes[id]
	for n != nil && n.Parent != "" {
		out = append(out, n.Parent)
		n = c.nodes[n.Parent]
	}
	return out
}

// IsDescendant reports whether id is a strict descendant of ancestor.
func (c *Chart) IsDescendant(id, ancestor string) bool {
	return id != ancestor && strings.HasPrefix(id, ancestor+".")
}

// Alias returns the id an alias points to.
func (c *Chart) Alias(name string) (string, bool) {
	id, ok := c.aliases[name]
	return id, ok
}

func (c *Chart) resolve(src *domain.StateNode, ref string) *domain.StateNode {
	switch {
	case ref == "":
		return nil
	case strings.HasPrefix(ref, "#"):
		return c.resolveAlias(ref[1:])
	case strings.HasPrefix(ref, "."):
		return c.walk(src, strings.Split(ref[1:], "."))
	}
	base := src
	if src.Parent != "" {
		base = c.nodes[src.Parent]
	}
	if n := c.walk(base, strings.Split(ref, ".")); n != nil {
		return n
	}
	return c.nodes[ref]
}

func (c *Chart) resolveAlias(ref string) *domain.StateNode {
	head, rest, _ := strings.Cut(ref, ".")
	id, ok := c.aliases[head]
	if !ok {
		return c.nodes[ref]
	}
	if rest == "" {
		return c.nodes[id]
	}
	return c.walk(c.nodes[id], strings.Split(rest, "."))
}

func (c *Chart) walk(from *domain.StateNode, path []string) *domain.StateNode {
	cur := from
	for _, seg := range path {
		if seg == "" || cur == nil {
			return nil
		}
		cur = c.nodes[cur.ID+"."+seg]
	}
	return cur
}
