package runtime

import (
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// recordHistory stores the active leaf set below id when id owns a history
// pseudo-state. Shallow history derives the owner's children from it.
func (i *Interpreter) recordHistory(id string) {
	n := i.chart.Node(id)
	if !i.ownsHistory(n) {
		return
	}
	var leaves []string
	for _, leaf := range i.leaves() {
		if i.chart.IsDescendant(leaf, id) {
			leaves = append(leaves, leaf)
		}
	}
	i.history[id] = leaves
}

func (i *Interpreter) ownsHistory(n *domain.StateNode) bool {
	for _, cid := range n.Children {
		if i.chart.Node(cid).Kind == domain.KindHistory {
			return true
		}
	}
	return false
}

// historyTargets returns what entering the history node h restores: the
// recorded leaves (deep), the recorded children of the owner (shallow), or
// the default when nothing was recorded.
func (i *Interpreter) historyTargets(h *domain.StateNode) []string {
	owner := i.chart.Node(h.Parent)
	if rec, ok := i.history[owner.ID]; ok && len(rec) > 0 {
		if h.HistoryDepth == domain.HistoryDeep {
			return slices.Clone(rec)
		}
		var children []string
		for _, leaf := range rec {
			for _, cid := range owner.Children {
				if (leaf == cid || i.chart.IsDescendant(leaf, cid)) && !slices.Contains(children, cid) {
					children = append(children, cid)
				}
			}
		}
		return children
	}

	if len(h.HistoryDefault) > 0 {
		return h.HistoryDefault
	}
	if owner.Kind == domain.KindCompound && owner.Initial != "" && owner.Initial != h.ID {
		return []string{owner.Initial}
	}
	var regions []string
	for _, cid := range owner.Children {
		if i.chart.Node(cid).Kind != domain.KindHistory {
			regions = append(regions, cid)
			if owner.Kind == domain.KindCompound {
				break
			}
		}
	}
	return regions
}
