package dsl

import (
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	def    *chart.Def
	parent *NodeBuilder
}

// Def returns the underlying definition.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Def() *chart.Def {
	return n.def
}

// Parent returns the builder of the enclosing node (nil for the root).
func (n *NodeBuilder) Parent() *NodeBuilder {
	return n.parent
}

// State returns the child with the given key, creating it if needed.
// Nodes with children become compound unless marked otherwise.
func (n *NodeBuilder) State(key string) *NodeBuilder {
	if c := n.def.Child(key); c != nil {
		return &NodeBuilder{def: c, parent: n}
	}
	c := &chart.Def{Key: key}
	n.def.Children = append(n.def.Children, c)
	return &NodeBuilder{def: c, parent: n}
}

// Final adds a final child node.
func (n *NodeBuilder) Final(key string) *NodeBuilder {
	return n.State(key).Kind(domain.KindFinal)
}

// History adds a history pseudo-state. defaultTarget is entered when
// nothing has been recorded yet; leave it empty to fall back to the
// parent's initial child. It returns the receiver for chaining.
func (n *NodeBuilder) History(key string, depth domain.HistoryDepth, defaultTarget ...string) *NodeBuilder {
	h := n.State(key).Kind(domain.KindHistory)
	h.def.History = depth
	if len(defaultTarget) > 0 {
		h.def.HistoryDefault = defaultTarget[0]
	}
	return n
}

// Kind forces the node kind.
func (n *NodeBuilder) Kind(k domain.StateKind) *NodeBuilder {
	n.def.Kind = k
	return n
}

// Parallel marks the node as parallel: all of its children are active regions.
func (n *NodeBuilder) Parallel() *NodeBuilder {
	return n.Kind(domain.KindParallel)
}

// Initial sets the default child by key.
func (n *NodeBuilder) Initial(key string) *NodeBuilder {
	n.def.Initial = key
	return n
}

// Alias makes the node addressable as "#alias".
func (n *NodeBuilder) Alias(alias string) *NodeBuilder {
	n.def.Alias = alias
	return n
}

// Entry appends entry actions.
func (n *NodeBuilder) Entry(actions ...domain.Action) *NodeBuilder {
	n.def.Entry = append(n.def.Entry, actions...)
	return n
}

// Exit appends exit actions.
func (n *NodeBuilder) Exit(actions ...domain.Action) *NodeBuilder {
	n.def.Exit = append(n.def.Exit, actions...)
	return n
}

// On adds an unguarded transition. It must be the last one for the event.
func (n *NodeBuilder) On(ev domain.EventType, target string, actions ...domain.Action) *NodeBuilder {
	return n.OnIf(ev, nil, target, actions...)
}

// OnIf adds a guarded transition. Transitions are tried in declaration order.
func (n *NodeBuilder) OnIf(ev domain.EventType, guard *domain.Guard, target string, actions ...domain.Action) *NodeBuilder {
	n.def.On = append(n.def.On, chart.TransitionDef{
		Event:   ev,
		Guard:   guard,
		Target:  target,
		Actions: actions,
	})
	return n
}

// Always adds an unguarded eventless transition.
func (n *NodeBuilder) Always(target string, actions ...domain.Action) *NodeBuilder {
	return n.OnIf(domain.EventAlways, nil, target, actions...)
}

// AlwaysIf adds a guarded eventless transition.
func (n *NodeBuilder) AlwaysIf(guard *domain.Guard, target string, actions ...domain.Action) *NodeBuilder {
	return n.OnIf(domain.EventAlways, guard, target, actions...)
}

// Invoke declares the asynchronous call issued when the node is entered.
func (n *NodeBuilder) Invoke(src string, input func(domain.Context) any) *NodeBuilder {
	n.def.Invoke = &domain.InvokeDef{Src: src, Input: input}
	return n
}

// OnDone adds a transition taken when the node's invocation succeeds.
func (n *NodeBuilder) OnDone(guard *domain.Guard, target string, actions ...domain.Action) *NodeBuilder {
	return n.OnIf(domain.EventInvokeDone, guard, target, actions...)
}

// OnError adds a transition taken when the node's invocation fails.
func (n *NodeBuilder) OnError(target string, actions ...domain.Action) *NodeBuilder {
	return n.OnIf(domain.EventInvokeError, nil, target, actions...)
}
