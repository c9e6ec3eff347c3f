package runtime

import (
	"context"
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// selectTransitions picks at most one enabled transition per active atomic
// state, scanning the state and then its ancestors innermost-first, and
// drops selections whose exit sets conflict.
func (i *Interpreter) selectTransitions(pattern domain.EventType, ev domain.Event) []*domain.Transition {
	var enabled []*domain.Transition
	for _, leaf := range i.leaves() {
		for _, id := range append([]string{leaf}, i.chart.Ancestors(leaf)...) {
			t := i.firstEnabled(id, pattern, ev)
			if t == nil {
				continue
			}
			if !slices.Contains(enabled, t) {
				enabled = append(enabled, t)
			}
			break
		}
	}
	return i.removeConflicts(enabled)
}

// selectOwned routes an accepted invocation result to the state that issued
// the call. Other active states never see it, whatever they declare for the
// event type.
func (i *Interpreter) selectOwned(ev domain.Event) []*domain.Transition {
	res, _ := ev.InvocationResult()
	if t := i.firstEnabled(res.StateID, ev.Type, ev); t != nil {
		return []*domain.Transition{t}
	}
	return nil
}

func (i *Interpreter) firstEnabled(id string, pattern domain.EventType, ev domain.Event) *domain.Transition {
	n := i.chart.Node(id)
	candidates := n.Transitions(pattern)
	if pattern != domain.EventAlways {
		candidates = append(slices.Clip(candidates), n.Transitions(domain.EventAny)...)
	}
	for _, t := range candidates {
		if t.Guard == nil || i.check(t.Guard, ev) {
			return t
		}
	}
	return nil
}

// removeConflicts keeps transitions with disjoint exit sets. A transition
// whose source is a descendant of a conflicting one preempts it; otherwise
// the earlier selection wins.
func (i *Interpreter) removeConflicts(ts []*domain.Transition) []*domain.Transition {
	if len(ts) < 2 {
		return ts
	}
	var filtered []*domain.Transition
	for _, t1 := range ts {
		preempted := false
		var remove []*domain.Transition
		exit1 := i.exitSet(t1)
		for _, t2 := range filtered {
			if !intersects(exit1, i.exitSet(t2)) {
				continue
			}
			if i.chart.IsDescendant(t1.Source, t2.Source) {
				remove = append(remove, t2)
			} else {
				preempted = true
				break
			}
		}
		if preempted {
			continue
		}
		filtered = slices.DeleteFunc(filtered, func(t *domain.Transition) bool {
			return slices.Contains(remove, t)
		})
		filtered = append(filtered, t1)
	}
	return filtered
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// transitionDomain is the node whose active descendants a transition exits.
func (i *Interpreter) transitionDomain(t *domain.Transition) string {
	if t.IsTargetless() {
		return ""
	}
	if t.Internal {
		all := true
		for _, target := range t.Targets {
			if !i.chart.IsDescendant(target, t.Source) {
				all = false
				break
			}
		}
		if all {
			return t.Source
		}
	}
	return i.lcca(t.Source, t.Targets)
}

// lcca finds the least common compound ancestor that strictly contains
// source and every target.
func (i *Interpreter) lcca(source string, targets []string) string {
	for _, anc := range i.chart.Ancestors(source) {
		if i.chart.Node(anc).Kind != domain.KindCompound {
			continue
		}
		all := true
		for _, target := range targets {
			if !i.chart.IsDescendant(target, anc) {
				all = false
				break
			}
		}
		if all {
			return anc
		}
	}
	return i.chart.Root().ID
}

func (i *Interpreter) exitSet(t *domain.Transition) map[string]bool {
	set := make(map[string]bool)
	dom := i.transitionDomain(t)
	if dom == "" {
		return set
	}
	for id := range i.active {
		if i.chart.IsDescendant(id, dom) {
			set[id] = true
		}
	}
	return set
}

// microstep takes a set of non-conflicting transitions: exit bottom-up,
// transition actions in order, entry top-down.
func (i *Interpreter) microstep(ctx context.Context, ev domain.Event, ts []*domain.Transition) {
	exit := make(map[string]bool)
	for _, t := range ts {
		for id := range i.exitSet(t) {
			exit[id] = true
		}
	}
	i.exitStates(ctx, ev, exit)

	for _, t := range ts {
		i.logger.Debug("transition",
			"event", ev.Type, "source", t.Source, "targets", t.Targets, "guard", t.GuardName())
		if i.hooks.OnTransition != nil {
			i.hooks.OnTransition(ctx, &domain.TransitionEvent{
				HookBase: newHookBase(domain.HookTransition, ev.Type),
				Source:   t.Source,
				Targets:  t.Targets,
				Guard:    t.GuardName(),
			})
		}
		i.runActions(t.Actions, ev)
	}

	enter := make(map[string]bool)
	for _, t := range ts {
		if t.IsTargetless() {
			continue
		}
		for _, target := range t.Targets {
			i.addDescendants(target, enter)
		}
		dom := i.transitionDomain(t)
		for _, target := range i.effectiveTargets(t) {
			i.addAncestors(target, dom, enter)
		}
	}
	i.enterStates(ctx, ev, enter)
}

func (i *Interpreter) exitStates(ctx context.Context, ev domain.Event, exit map[string]bool) {
	if len(exit) == 0 {
		return
	}
	order := i.sorted(exit, true)
	for _, id := range order {
		i.recordHistory(id)
	}
	for _, id := range order {
		n := i.chart.Node(id)
		i.runActions(n.Exit, ev)
		i.cancelInvocation(ctx, id)
		delete(i.active, id)
		i.logger.Debug("state exited", "state", id)
		if i.hooks.OnStateExit != nil {
			i.hooks.OnStateExit(ctx, &domain.NodeEvent{
				HookBase: newHookBase(domain.HookStateExit, ev.Type),
				NodeID:   id,
				Kind:     n.Kind,
			})
		}
	}
}

func (i *Interpreter) enterStates(ctx context.Context, ev domain.Event, enter map[string]bool) {
	for _, id := range i.sorted(enter, false) {
		if i.active[id] {
			continue
		}
		n := i.chart.Node(id)
		i.active[id] = true
		i.logger.Debug("state entered", "state", id)
		if i.hooks.OnStateEnter != nil {
			i.hooks.OnStateEnter(ctx, &domain.NodeEvent{
				HookBase: newHookBase(domain.HookStateEnter, ev.Type),
				NodeID:   id,
				Kind:     n.Kind,
			})
		}
		i.runActions(n.Entry, ev)
		if n.Invoke != nil {
			i.pendingInvoke = append(i.pendingInvoke, id)
		}
		if n.Kind == domain.KindFinal && n.Parent != "" && n.Parent != i.chart.Root().ID {
			i.internal = append(i.internal, domain.NewEvent(domain.EventType("done.state."+n.Parent)))
		}
	}
}

// addDescendants adds id and its default descendants to the entry set.
func (i *Interpreter) addDescendants(id string, enter map[string]bool) {
	n := i.chart.Node(id)
	if n.Kind == domain.KindHistory {
		targets := i.historyTargets(n)
		for _, s := range targets {
			i.addDescendants(s, enter)
		}
		for _, s := range targets {
			i.addAncestors(s, n.Parent, enter)
		}
		return
	}

	enter[id] = true
	switch n.Kind {
	case domain.KindCompound:
		i.addDescendants(n.Initial, enter)
		i.addAncestors(n.Initial, id, enter)
	case domain.KindParallel:
		i.addRegions(n, enter)
	}
}

// addAncestors adds the ancestors of id strictly below stop, filling in
// sibling regions of parallel ancestors.
func (i *Interpreter) addAncestors(id, stop string, enter map[string]bool) {
	for _, anc := range i.chart.Ancestors(id) {
		if anc == stop {
			return
		}
		enter[anc] = true
		if n := i.chart.Node(anc); n.Kind == domain.KindParallel {
			i.addRegions(n, enter)
		}
	}
}

func (i *Interpreter) addRegions(n *domain.StateNode, enter map[string]bool) {
	for _, region := range n.Children {
		if i.chart.Node(region).Kind == domain.KindHistory {
			continue
		}
		covered := false
		for id := range enter {
			if id == region || i.chart.IsDescendant(id, region) {
				covered = true
				break
			}
		}
		if !covered {
			i.addDescendants(region, enter)
		}
	}
}

// effectiveTargets replaces history targets by what they restore.
func (i *Interpreter) effectiveTargets(t *domain.Transition) []string {
	var out []string
	for _, id := range t.Targets {
		n := i.chart.Node(id)
		if n.Kind == domain.KindHistory {
			out = append(out, i.historyTargets(n)...)
			continue
		}
		out = append(out, id)
	}
	return out
}
