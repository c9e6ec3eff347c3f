package runtime

import (
	"github.com/aretw0/parley/pkg/domain"
)

// check evaluates a guard against the current Context. A panicking guard
// counts as false.
func (i *Interpreter) check(g *domain.Guard, ev domain.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("guard panicked", "guard", g.Name, "event", ev.Type, "panic", r)
			ok = false
		}
	}()
	return g.Check(i.ctx, ev)
}

// runActions executes actions in order; each one observes the patches of
// the previous ones.
func (i *Interpreter) runActions(actions []domain.Action, ev domain.Event) {
	for _, a := range actions {
		i.run(a, ev)
	}
}

func (i *Interpreter) run(a domain.Action, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("action panicked", "action", a.Name, "event", ev.Type, "panic", r)
		}
	}()

	switch a.Kind {
	case domain.ActionAssign:
		if a.Assign != nil {
			i.ctx = i.ctx.Apply(a.Assign(i.ctx, ev))
		}
	case domain.ActionSend:
		if a.Send != nil {
			i.outbox = append(i.outbox, a.Send(i.ctx, ev))
		}
	case domain.ActionRaise:
		if a.Raise != nil {
			i.internal = append(i.internal, a.Raise(i.ctx, ev))
		}
	case domain.ActionReset:
		i.ctx = i.ctx.Reset(i.initial)
		clear(i.history)
		i.logger.Debug("context reset", "action", a.Name)
	default:
		i.logger.Warn("unknown action kind", "action", a.Name, "kind", a.Kind)
	}
}
