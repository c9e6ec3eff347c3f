package dsl

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// Assign builds an action patching the Context.
func Assign(name string, fn domain.AssignFunc) domain.Action {
	return domain.Action{Kind: domain.ActionAssign, Name: name, Assign: fn}
}

// Set builds an action storing a constant in a slot.
func Set(key string, value any) domain.Action {
	return Assign("set:"+key, func(domain.Context, domain.Event) domain.Patch {
		return domain.Patch{key: value}
	})
}

// Send builds an action emitting a command.
func Send(name string, fn domain.SendFunc) domain.Action {
	return domain.Action{Kind: domain.ActionSend, Name: name, Send: fn}
}

// Speak emits a fixed SPEAK prompt.
func Speak(text string) domain.Action {
	return Send("speak", func(domain.Context, domain.Event) domain.Command {
		return domain.Speak(text)
	})
}

// Speakf emits a SPEAK prompt computed from the Context and event.
func Speakf(name string, fn func(ctx domain.Context, ev domain.Event) string) domain.Action {
	return Send(name, func(ctx domain.Context, ev domain.Event) domain.Command {
		return domain.Speak(fn(ctx, ev))
	})
}

// SpeakSlots emits a SPEAK prompt formatted with the string values of slots.
func SpeakSlots(format string, keys ...string) domain.Action {
	return Speakf("speak", func(ctx domain.Context, _ domain.Event) string {
		args := make([]any, len(keys))
		for i, k := range keys {
			args[i] = ctx.String(k)
		}
		return fmt.Sprintf(format, args...)
	})
}

// Listen emits a LISTEN command.
func Listen() domain.Action {
	return Send("listen", func(domain.Context, domain.Event) domain.Command {
		return domain.Listen()
	})
}

// Raise builds an action queueing an internal event.
func Raise(t domain.EventType) domain.Action {
	return domain.Action{
		Kind: domain.ActionRaise,
		Name: "raise:" + string(t),
		Raise: func(domain.Context, domain.Event) domain.Event {
			return domain.NewEvent(t)
		},
	}
}

// Reset discards every slot and the recorded history. Attach it to a
// transition into the initial state to start the conversation over.
func Reset() domain.Action {
	return domain.Action{Kind: domain.ActionReset, Name: "reset"}
}

// Increment adds one to an integer slot.
func Increment(key string) domain.Action {
	return Assign("inc:"+key, func(ctx domain.Context, _ domain.Event) domain.Patch {
		return domain.Patch{key: ctx.Int(key) + 1}
	})
}
