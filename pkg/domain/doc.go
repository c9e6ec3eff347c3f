/*
Package domain contains the core models of the parley dialogue engine.

It defines the statechart vocabulary (nodes, transitions, guards, actions),
the events and commands exchanged with collaborators, and the Context that
carries conversation slots. The package is pure: no I/O, no goroutines, no
logging. Everything that moves lives in internal/runtime and pkg/runner.

# Key Entities

  - StateNode: a node of the chart (atomic, compound, parallel, history or final).
  - Transition: an event pattern, an optional Guard, a target and Actions.
  - Context: the slot map plus the invocation generation counter.
  - Event: an inbound stimulus (RECOGNISED, TIMEOUT, ENDSPEECH, ...).
  - Command: an outbound instruction for a collaborator (SPEAK, LISTEN, ...).
  - Snapshot: a serialisable view of a running interpreter.
*/
package domain
