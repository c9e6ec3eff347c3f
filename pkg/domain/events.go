package domain

import (
	"context"
	"time"
)

// HookType categorises lifecycle notifications.
type HookType string

const (
	HookStateEnter   HookType = "state_enter"
	HookStateExit    HookType = "state_exit"
	HookTransition   HookType = "transition"
	HookEventDropped HookType = "event_dropped"
	HookInvoke       HookType = "invoke"
	HookDiscard      HookType = "invocation_discarded"
)

// HookBase contains common fields for all lifecycle notifications.
type HookBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      HookType  `json:"type"`
	Event     EventType `json:"event,omitempty"`
}

// NodeEvent reports entry into or exit from a node.
type NodeEvent struct {
	HookBase
	NodeID string    `json:"node_id"`
	Kind   StateKind `json:"kind"`
}

// TransitionEvent reports a taken transition.
type TransitionEvent struct {
	HookBase
	Source  string   `json:"source"`
	Targets []string `json:"targets,omitempty"`
	Guard   string   `json:"guard,omitempty"`
}

// DropEvent reports an event that matched no transition.
type DropEvent struct {
	HookBase
	Configuration []string `json:"configuration"`
}

// InvokeEvent reports an issued call or a discarded result.
type InvokeEvent struct {
	HookBase
	Invocation Invocation `json:"invocation"`
	Reason     string     `json:"reason,omitempty"`
}

// LifecycleHooks defines callbacks for interpreter observability.
// Hooks run synchronously inside Send and must not call back into the interpreter.
type LifecycleHooks struct {
	OnStateEnter          func(context.Context, *NodeEvent)
	OnStateExit           func(context.Context, *NodeEvent)
	OnTransition          func(context.Context, *TransitionEvent)
	OnEventDropped        func(context.Context, *DropEvent)
	OnInvoke              func(context.Context, *InvokeEvent)
	OnInvocationDiscarded func(context.Context, *InvokeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:          chain(h.OnStateEnter, other.OnStateEnter),
		OnStateExit:           chain(h.OnStateExit, other.OnStateExit),
		OnTransition:          chain(h.OnTransition, other.OnTransition),
		OnEventDropped:        chain(h.OnEventDropped, other.OnEventDropped),
		OnInvoke:              chain(h.OnInvoke, other.OnInvoke),
		OnInvocationDiscarded: chain(h.OnInvocationDiscarded, other.OnInvocationDiscarded),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
