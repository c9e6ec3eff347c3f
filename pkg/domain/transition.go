package domain

// GuardFunc is a pure predicate over the Context and the triggering event.
// It may be evaluated many times per event and must not have side effects.
type GuardFunc func(ctx Context, ev Event) bool

// Guard is a named predicate. The name shows up in logs and diagrams.
type Guard struct {
	Name  string
	Check GuardFunc
}

// Transition moves the configuration in response to an event.
type Transition struct {
	// Event is the pattern this transition answers to (EventAlways for eventless ones).
	Event EventType `json:"event"`
	// Source is the id of the declaring node.
	Source string `json:"source"`
	// Guard is optional; a nil guard always passes.
	Guard *Guard `json:"-"`
	// Target is the reference as written in the chart definition.
	Target string `json:"target,omitempty"`
	// Targets holds the resolved node ids. Empty for targetless transitions.
	Targets []string `json:"targets,omitempty"`
	// Internal transitions do not exit their source when targeting descendants.
	Internal bool `json:"internal,omitempty"`
	// Actions run between the exit and the entry phase, in order.
	Actions []Action `json:"-"`
}

// GuardName returns the guard label or "" for unguarded transitions.
func (t *Transition) GuardName() string {
	if t.Guard == nil {
		return ""
	}
	return t.Guard.Name
}

// IsTargetless reports whether the transition only runs actions.
func (t *Transition) IsTargetless() bool {
	return len(t.Targets) == 0
}
