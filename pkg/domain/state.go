package domain

// Status defines the lifecycle of an interpreter.
type Status string

const (
	StatusIdle    Status = "idle"    // Created, Start not called yet
	StatusRunning Status = "running" // Accepting events
	StatusDone    Status = "done"    // A top-level final state is active
	StatusHalted  Status = "halted"  // Stopped by a ChartCycleError
)

// Snapshot is a serialisable view of an interpreter at a quiescent point.
type Snapshot struct {
	SessionID string `json:"session_id,omitempty"`
	Status    Status `json:"status"`

	// Configuration lists the active leaves in document order.
	Configuration []string `json:"configuration"`
	// Active lists every active node, ancestors included, in document order.
	Active []string `json:"active"`

	Context    map[string]any `json:"context,omitempty"`
	Generation uint64         `json:"generation"`

	// History maps a compound node to what was active when it was last exited.
	History map[string][]string `json:"history,omitempty"`
}
