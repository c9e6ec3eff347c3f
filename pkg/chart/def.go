package chart

import "github.com/aretw0/parley/pkg/domain"

// Def is the nested, declarative form of a chart node. Charts are usually
// produced with the dsl package rather than by filling Defs by hand.
type Def struct {
	Key   string
	Alias string
	// Kind is inferred when empty: compound with children, atomic without.
	Kind domain.StateKind

	// Initial is the key of the default child of a compound node.
	Initial string

	// History and HistoryDefault apply to history nodes only.
	History        domain.HistoryDepth
	HistoryDefault string

	Entry []domain.Action
	Exit  []domain.Action
	On    []TransitionDef

	Invoke *domain.InvokeDef

	Children []*Def
}

// TransitionDef declares one transition. Target may hold several
// whitespace-separated references to enter parallel regions at once.
type TransitionDef struct {
	Event   domain.EventType
	Guard   *domain.Guard
	Target  string
	Actions []domain.Action
}

// Child returns the direct child with the given key.
func (d *Def) Child(key string) *Def {
	for _, c := range d.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func (d *Def) kind() domain.StateKind {
	if d.Kind != "" {
		return d.Kind
	}
	if len(d.Children) > 0 {
		return domain.KindCompound
	}
	return domain.KindAtomic
}
