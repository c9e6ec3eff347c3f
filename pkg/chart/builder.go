package chart

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

type builder struct {
	c    *Chart
	defs map[string]*Def
	errs []*domain.ChartError
}

func (b *builder) fail(id, format string, args ...any) {
	b.errs = append(b.errs, &domain.ChartError{NodeID: id, Reason: fmt.Sprintf(format, args...)})
}

// flatten assigns ids and document order depth-first.
func (b *builder) flatten(d *Def, parent *domain.StateNode, depth int) *domain.StateNode {
	id := d.Key
	if parent != nil {
		id = parent.ID + "." + d.Key
	}
	n := &domain.StateNode{
		ID:           id,
		Key:          d.Key,
		Alias:        d.Alias,
		Kind:         d.kind(),
		HistoryDepth: d.History,
		Entry:        d.Entry,
		Exit:         d.Exit,
		Invoke:       d.Invoke,
		Order:        len(b.c.order),
		Depth:        depth,
	}
	if parent != nil {
		n.Parent = parent.ID
	}

	if _, dup := b.c.nodes[id]; dup {
		b.fail(id, "duplicate node id")
		return n
	}
	b.c.nodes[id] = n
	b.c.order = append(b.c.order, n)
	b.defs[id] = d

	if d.Alias != "" {
		if prev, taken := b.c.aliases[d.Alias]; taken {
			b.fail(id, "alias %q already used by %q", d.Alias, prev)
		} else {
			b.c.aliases[d.Alias] = id
		}
	}

	for _, cd := range d.Children {
		if cd == nil || cd.Key == "" {
			b.fail(id, "child without key")
			continue
		}
		if strings.ContainsAny(cd.Key, ". #") {
			b.fail(id+"."+cd.Key, "key must not contain '.', '#' or spaces")
			continue
		}
		child := b.flatten(cd, n, depth+1)
		n.Children = append(n.Children, child.ID)
	}
	return n
}

// link resolves references and checks structural rules once every id is known.
func (b *builder) link() {
	for _, n := range b.c.order {
		d := b.defs[n.ID]
		b.checkKind(n, d)
		b.linkTransitions(n, d)
		if n.Invoke != nil && n.Invoke.Src == "" {
			b.fail(n.ID, "invoke without src")
		}
	}
}

func (b *builder) checkKind(n *domain.StateNode, d *Def) {
	switch n.Kind {
	case domain.KindAtomic, domain.KindFinal:
		if len(n.Children) > 0 {
			b.fail(n.ID, "%s node cannot have children", n.Kind)
		}
	case domain.KindCompound:
		b.linkInitial(n, d)
	case domain.KindParallel:
		regions := 0
		for _, cid := range n.Children {
			if b.c.nodes[cid].Kind != domain.KindHistory {
				regions++
			}
		}
		if regions < 2 {
			b.fail(n.ID, "parallel node needs at least two regions, got %d", regions)
		}
	case domain.KindHistory:
		b.linkHistory(n, d)
	default:
		b.fail(n.ID, "unknown node kind %q", n.Kind)
	}
}

func (b *builder) linkInitial(n *domain.StateNode, d *Def) {
	if len(n.Children) == 0 {
		b.fail(n.ID, "compound node has no children")
		return
	}
	if d.Initial != "" {
		id := n.ID + "." + d.Initial
		child, ok := b.c.nodes[id]
		if !ok || child.Parent != n.ID {
			b.fail(n.ID, "initial %q is not a child", d.Initial)
			return
		}
		n.Initial = id
		return
	}
	// Without an explicit initial, a history child with a default may stand in.
	for _, cid := range n.Children {
		child := b.c.nodes[cid]
		if child.Kind == domain.KindHistory && b.defs[cid].HistoryDefault != "" {
			n.Initial = cid
			return
		}
	}
	b.fail(n.ID, "compound node has no initial child")
}

func (b *builder) linkHistory(n *domain.StateNode, d *Def) {
	if len(n.Children) > 0 {
		b.fail(n.ID, "history node cannot have children")
	}
	parent := b.c.nodes[n.Parent]
	if parent == nil || (parent.Kind != domain.KindCompound && parent.Kind != domain.KindParallel) {
		b.fail(n.ID, "history node must live inside a compound or parallel node")
		return
	}
	if n.HistoryDepth == "" {
		n.HistoryDepth = domain.HistoryShallow
	}
	if n.HistoryDepth != domain.HistoryShallow && n.HistoryDepth != domain.HistoryDeep {
		b.fail(n.ID, "unknown history depth %q", n.HistoryDepth)
	}
	for _, ref := range strings.Fields(d.HistoryDefault) {
		target := b.c.resolve(n, ref)
		if target == nil || !b.c.IsDescendant(target.ID, parent.ID) || target.ID == n.ID {
			b.fail(n.ID, "history default %q must resolve below %q", ref, parent.ID)
			continue
		}
		n.HistoryDefault = append(n.HistoryDefault, target.ID)
	}
}

func (b *builder) linkTransitions(n *domain.StateNode, d *Def) {
	if len(d.On) == 0 {
		return
	}
	if n.Kind == domain.KindHistory {
		b.fail(n.ID, "history node cannot declare transitions")
		return
	}
	n.On = make(map[domain.EventType][]*domain.Transition)
	unguarded := make(map[domain.EventType]bool)

	for _, td := range d.On {
		if td.Event == "" {
			b.fail(n.ID, "transition without event (use EventAlways for eventless transitions)")
			continue
		}
		if unguarded[td.Event] {
			b.fail(n.ID, "unguarded %s transition masks later entries", td.Event)
			continue
		}
		if td.Guard == nil {
			unguarded[td.Event] = true
		} else if td.Guard.Check == nil {
			b.fail(n.ID, "guard %q has no check", td.Guard.Name)
			continue
		}

		t := &domain.Transition{
			Event:   td.Event,
			Source:  n.ID,
			Guard:   td.Guard,
			Target:  td.Target,
			Actions: td.Actions,
		}
		refs := strings.Fields(td.Target)
		internal := len(refs) > 0
		for _, ref := range refs {
			target := b.c.resolve(n, ref)
			if target == nil {
				b.fail(n.ID, "unresolved target %q on %s", ref, td.Event)
				continue
			}
			t.Targets = append(t.Targets, target.ID)
			if !strings.HasPrefix(ref, ".") {
				internal = false
			}
		}
		t.Internal = internal && n.Kind != domain.KindAtomic && n.Kind != domain.KindFinal
		n.On[td.Event] = append(n.On[td.Event], t)
	}
}
