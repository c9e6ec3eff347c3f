package domain

// ActionKind distinguishes what an action produces.
type ActionKind string

const (
	// ActionAssign produces a Patch applied to the Context.
	ActionAssign ActionKind = "assign"
	// ActionSend produces a Command for a collaborator (fire-and-forget).
	ActionSend ActionKind = "send"
	// ActionRaise produces an internal event handled before Send returns.
	ActionRaise ActionKind = "raise"
	// ActionReset discards every slot and the recorded history, as on a
	// fresh start. The invocation generation keeps counting.
	ActionReset ActionKind = "reset"
)

// AssignFunc computes a Context patch.
type AssignFunc func(ctx Context, ev Event) Patch

// SendFunc computes an outbound command.
type SendFunc func(ctx Context, ev Event) Command

// RaiseFunc computes a self-addressed event.
type RaiseFunc func(ctx Context, ev Event) Event

// Action is a declarative side effect attached to entry, exit or a transition.
// Exactly one of Assign, Send or Raise is set, matching Kind; a reset
// carries no function.
type Action struct {
	Kind   ActionKind
	Name   string
	Assign AssignFunc
	Send   SendFunc
	Raise  RaiseFunc
}

// CommandType names an outbound instruction.
type CommandType string

// Command is an instruction for a collaborator. The interpreter never waits
// for it; completion comes back, if at all, as a later Event.
type Command struct {
	Type CommandType `json:"type"`
	// Text is the prompt for SPEAK. It may contain speech markup.
	Text string `json:"text,omitempty"`
	// Invocation describes the call for INVOKE and CANCEL.
	Invocation *Invocation `json:"invocation,omitempty"`
}

// Invocation is one issued asynchronous call.
type Invocation struct {
	ID         string `json:"id"`
	Src        string `json:"src"`
	StateID    string `json:"state_id"`
	Generation uint64 `json:"generation"`
	Input      any    `json:"input,omitempty"`
}

// Speak builds a SPEAK command.
func Speak(text string) Command {
	return Command{Type: CommandSpeak, Text: text}
}

// Listen builds a LISTEN command.
func Listen() Command {
	return Command{Type: CommandListen}
}
