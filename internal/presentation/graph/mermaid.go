package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the diagram.
type Overlay struct {
	// Active lists the ids of the active nodes.
	Active []string
}

// GenerateMermaid renders a chart as a Mermaid stateDiagram-v2.
//
// Compound nodes become composite states with their initial child marked
// by [*]. Parallel regions are separated by "--". History pseudo-states are
// drawn as H or H*. Transition labels read "EVENT [guard]"; eventless
// transitions show only the guard. Targetless transitions are omitted.
func GenerateMermaid(c *chart.Chart, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	root := c.Root()
	writeChildren(&sb, c, root, 1)

	var edges []string
	for _, n := range c.Nodes() {
		edges = append(edges, transitions(n)...)
		if n.Kind == domain.KindFinal {
			edges = append(edges, fmt.Sprintf("%s --> [*]", sanitizeMermaidID(n.ID)))
		}
	}
	for _, e := range edges {
		sb.WriteString("    " + e + "\n")
	}

	if overlay != nil && len(overlay.Active) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Active {
			n := c.Node(id)
			if n == nil || !n.IsAtomic() || seen[id] {
				continue
			}
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(id)))
		}
	}
	return sb.String()
}

func writeChildren(sb *strings.Builder, c *chart.Chart, parent *domain.StateNode, depth int) {
	indent := strings.Repeat("    ", depth)
	if parent.Kind == domain.KindCompound && parent.Initial != "" {
		fmt.Fprintf(sb, "%s[*] --> %s\n", indent, sanitizeMermaidID(parent.Initial))
	}
	for i, id := range parent.Children {
		n := c.Node(id)
		if n == nil {
			continue
		}
		if parent.Kind == domain.KindParallel && i > 0 && n.Kind != domain.KindHistory {
			sb.WriteString(indent + "--\n")
		}
		writeNode(sb, c, n, depth)
	}
}

func writeNode(sb *strings.Builder, c *chart.Chart, n *domain.StateNode, depth int) {
	indent := strings.Repeat("    ", depth)
	safeID := sanitizeMermaidID(n.ID)
	label := n.Key
	if n.Alias != "" && n.Alias != n.Key {
		label = fmt.Sprintf("%s (#%s)", n.Key, n.Alias)
	}
	if n.Invoke != nil {
		label += " ⚙ " + n.Invoke.Src
	}

	switch n.Kind {
	case domain.KindHistory:
		h := "H"
		if n.HistoryDepth == domain.HistoryDeep {
			h = "H*"
		}
		fmt.Fprintf(sb, "%sstate \"%s\" as %s\n", indent, h, safeID)
	case domain.KindCompound, domain.KindParallel:
		fmt.Fprintf(sb, "%sstate \"%s\" as %s {\n", indent, escape(label), safeID)
		writeChildren(sb, c, n, depth+1)
		fmt.Fprintf(sb, "%s}\n", indent)
	default:
		fmt.Fprintf(sb, "%sstate \"%s\" as %s\n", indent, escape(label), safeID)
	}
}

func transitions(n *domain.StateNode) []string {
	events := sortedEvents(n)

	var out []string
	from := sanitizeMermaidID(n.ID)
	for _, ev := range events {
		for _, t := range n.On[ev] {
			if t.IsTargetless() {
				continue
			}
			label := edgeLabel(t)
			for _, target := range t.Targets {
				edge := fmt.Sprintf("%s --> %s", from, sanitizeMermaidID(target))
				if label != "" {
					edge += " : " + label
				}
				out = append(out, edge)
			}
		}
	}
	return out
}

// sortedEvents lists the event patterns of n alphabetically, eventless last.
func sortedEvents(n *domain.StateNode) []domain.EventType {
	events := make([]domain.EventType, 0, len(n.On))
	for ev := range n.On {
		events = append(events, ev)
	}
	slices.SortFunc(events, func(a, b domain.EventType) int {
		if (a == domain.EventAlways) != (b == domain.EventAlways) {
			if a == domain.EventAlways {
				return 1
			}
			return -1
		}
		return strings.Compare(string(a), string(b))
	})
	return events
}

func edgeLabel(t *domain.Transition) string {
	var parts []string
	if t.Event != domain.EventAlways {
		parts = append(parts, string(t.Event))
	}
	if g := t.GuardName(); g != "" {
		parts = append(parts, "["+g+"]")
	}
	return escape(strings.Join(parts, " "))
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, ":", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "#", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
