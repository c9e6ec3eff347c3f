package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// startInvocations issues the calls of states entered during the macrostep
// that are still active once it settles. A state entered and left within
// the same Send never issues its call.
func (i *Interpreter) startInvocations(ctx context.Context) {
	pending := i.pendingInvoke
	i.pendingInvoke = nil

	var issued []string
	for _, id := range pending {
		if !i.active[id] || slices.Contains(issued, id) {
			continue
		}
		issued = append(issued, id)
		i.issue(ctx, i.chart.Node(id))
	}
}

func (i *Interpreter) issue(ctx context.Context, n *domain.StateNode) {
	i.ctx = i.ctx.NextGeneration()
	gen := i.ctx.Generation()

	inv := domain.Invocation{
		ID:         fmt.Sprintf("%s#%d", n.ID, gen),
		Src:        n.Invoke.Src,
		StateID:    n.ID,
		Generation: gen,
		Input:      i.invokeInput(n),
	}
	i.invocations[n.ID] = inv
	i.outbox = append(i.outbox, domain.Command{Type: domain.CommandInvoke, Invocation: &inv})

	i.logger.Debug("invocation issued", "id", inv.ID, "src", inv.Src)
	if i.hooks.OnInvoke != nil {
		i.hooks.OnInvoke(ctx, &domain.InvokeEvent{
			HookBase:   newHookBase(domain.HookInvoke, ""),
			Invocation: inv,
		})
	}
}

func (i *Interpreter) invokeInput(n *domain.StateNode) (input any) {
	if n.Invoke.Input == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("invoke input panicked", "state", n.ID, "panic", r)
			input = nil
		}
	}()
	return n.Invoke.Input(i.ctx)
}

// cancelInvocation forgets the outstanding call of an exiting state and
// tells the collaborator it may stop working on it.
func (i *Interpreter) cancelInvocation(ctx context.Context, id string) {
	inv, ok := i.invocations[id]
	if !ok {
		return
	}
	delete(i.invocations, id)
	i.outbox = append(i.outbox, domain.Command{Type: domain.CommandCancel, Invocation: &inv})
	i.logger.Debug("invocation cancelled", "id", inv.ID)
}

// acceptResult checks that a result answers the latest call of a state that
// is still active. Accepted results consume the call, so a duplicate
// delivery is stale as well.
func (i *Interpreter) acceptResult(ctx context.Context, ev domain.Event) bool {
	res, ok := ev.InvocationResult()
	reason := ""
	inv, issued := i.invocations[res.StateID]
	switch {
	case !ok:
		reason = "malformed result"
	case !i.active[res.StateID]:
		reason = "owner inactive"
	case !issued || inv.Generation != res.Generation:
		reason = "stale generation"
	}
	if reason == "" {
		delete(i.invocations, res.StateID)
		return true
	}

	i.logger.Debug("invocation result discarded",
		"state", res.StateID, "generation", res.Generation, "reason", reason)
	if i.hooks.OnInvocationDiscarded != nil {
		i.hooks.OnInvocationDiscarded(ctx, &domain.InvokeEvent{
			HookBase: newHookBase(domain.HookDiscard, ev.Type),
			Invocation: domain.Invocation{
				ID:         res.ID,
				StateID:    res.StateID,
				Generation: res.Generation,
			},
			Reason: reason,
		})
	}
	return false
}
