package domain

// StateKind defines how a node takes part in the active configuration.
type StateKind string

const (
	// KindAtomic is a leaf node with no children.
	KindAtomic StateKind = "atomic"
	// KindCompound has exactly one active child while active.
	KindCompound StateKind = "compound"
	// KindParallel has all of its child regions active while active.
	KindParallel StateKind = "parallel"
	// KindHistory is a pseudo-state restoring the last configuration of its parent.
	KindHistory StateKind = "history"
	// KindFinal is a leaf marking completion of its parent.
	KindFinal StateKind = "final"
)

// HistoryDepth selects what a history pseudo-state records.
type HistoryDepth string

const (
	// HistoryShallow records the immediate active children of the parent.
	HistoryShallow HistoryDepth = "shallow"
	// HistoryDeep records the active leaf set below the parent.
	HistoryDeep HistoryDepth = "deep"
)

// StateNode is one node of a chart. Nodes are created by the chart package
// and are read-only afterwards.
type StateNode struct {
	// ID is the full dot path from the root, e.g. "appointment.main.user".
	ID string `json:"id"`
	// Key is the local name of the node inside its parent.
	Key string `json:"key"`
	// Alias allows "#alias" addressing from anywhere in the chart.
	Alias string `json:"alias,omitempty"`

	Kind   StateKind `json:"kind"`
	Parent string    `json:"parent,omitempty"`

	// Children lists child ids in document order. For parallel nodes these are the regions.
	Children []string `json:"children,omitempty"`
	// Initial is the resolved id of the default child of a compound node.
	Initial string `json:"initial,omitempty"`

	// HistoryDepth and HistoryDefault only apply to history nodes.
	// HistoryDefault holds resolved ids entered when nothing was recorded yet.
	HistoryDepth   HistoryDepth `json:"history_depth,omitempty"`
	HistoryDefault []string     `json:"history_default,omitempty"`

	Entry []Action `json:"-"`
	Exit  []Action `json:"-"`

	// On maps an event pattern to its ordered transition list.
	On map[EventType][]*Transition `json:"-"`

	Invoke *InvokeDef `json:"invoke,omitempty"`

	// Order is the document (pre-order) position; Depth is 0 for the root.
	Order int `json:"order"`
	Depth int `json:"depth"`
}

// IsAtomic reports whether the node is a leaf of the configuration.
func (n *StateNode) IsAtomic() bool {
	return n.Kind == KindAtomic || n.Kind == KindFinal
}

// Transitions returns the ordered transitions declared for the pattern.
func (n *StateNode) Transitions(ev EventType) []*Transition {
	if n.On == nil {
		return nil
	}
	return n.On[ev]
}

// InvokeDef declares an asynchronous call owned by a node.
// The call is issued when the node is entered and its result is only
// accepted while the node is still active.
type InvokeDef struct {
	// Src names the collaborator serving the call (e.g. "knowledge").
	Src string `json:"src"`
	// Input derives the request payload from the Context at issue time.
	Input func(ctx Context) any `json:"-"`
}
