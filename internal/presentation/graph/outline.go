package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
)

// GenerateOutline renders a chart as a nested Markdown list, one item per
// state followed by its transitions. It is meant for reading in a terminal
// where Mermaid cannot be drawn.
func GenerateOutline(c *chart.Chart) string {
	var sb strings.Builder
	root := c.Root()
	fmt.Fprintf(&sb, "# %s\n\n", root.Key)
	fmt.Fprintf(&sb, "%d states. Initial: `%s`.\n\n", c.Len(), root.Initial)
	for _, id := range root.Children {
		if n := c.Node(id); n != nil {
			writeOutline(&sb, c, n, 0)
		}
	}
	return sb.String()
}

func writeOutline(sb *strings.Builder, c *chart.Chart, n *domain.StateNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s- **%s** _%s_%s\n", indent, n.Key, n.Kind, outlineDetails(c, n))

	for _, ev := range sortedEvents(n) {
		for _, t := range n.On[ev] {
			fmt.Fprintf(sb, "%s  - %s\n", indent, outlineTransition(c, t))
		}
	}
	for _, id := range n.Children {
		if child := c.Node(id); child != nil {
			writeOutline(sb, c, child, depth+1)
		}
	}
}

func outlineDetails(c *chart.Chart, n *domain.StateNode) string {
	var parts []string
	if n.Alias != "" && n.Alias != n.Key {
		parts = append(parts, "`#"+n.Alias+"`")
	}
	if n.Kind == domain.KindCompound && n.Initial != "" {
		parts = append(parts, "initial `"+keyOf(c, n.Initial)+"`")
	}
	if n.Kind == domain.KindHistory {
		parts = append(parts, string(n.HistoryDepth))
	}
	if n.Invoke != nil {
		parts = append(parts, "invokes `"+n.Invoke.Src+"`")
	}
	if len(n.Entry) > 0 {
		parts = append(parts, "entry "+actionNames(n.Entry))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func outlineTransition(c *chart.Chart, t *domain.Transition) string {
	var sb strings.Builder
	if t.Event == domain.EventAlways {
		sb.WriteString("_always_")
	} else {
		sb.WriteString("`" + string(t.Event) + "`")
	}
	if g := t.GuardName(); g != "" {
		sb.WriteString(" [" + g + "]")
	}
	if t.IsTargetless() {
		sb.WriteString(" stays")
	} else {
		targets := make([]string, len(t.Targets))
		for i, id := range t.Targets {
			targets[i] = "`" + keyOf(c, id) + "`"
		}
		sb.WriteString(" → " + strings.Join(targets, ", "))
	}
	if len(t.Actions) > 0 {
		sb.WriteString(" do " + actionNames(t.Actions))
	}
	return sb.String()
}

func actionNames(actions []domain.Action) string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		name := a.Name
		if name == "" {
			name = string(a.Kind)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// keyOf shortens an id to the part below the root.
func keyOf(c *chart.Chart, id string) string {
	return strings.TrimPrefix(id, c.Root().ID+".")
}
