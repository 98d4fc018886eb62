package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
)

// Terminal styles for structure models.
var (
	styleChip       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	styleChipMarked = styleChip.BorderForeground(colorCyan).Bold(true)
	stylePanel      = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(colorDim).PaddingLeft(1)
	styleVarName    = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleRole       = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	styleBanner     = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)

	fillStyles = map[structure.Fill]lipgloss.Style{
		structure.FillDefault:  lipgloss.NewStyle().Foreground(colorWhite),
		structure.FillVisited:  lipgloss.NewStyle().Foreground(colorGreen),
		structure.FillFrontier: lipgloss.NewStyle().Foreground(colorYellow),
		structure.FillActive:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

// markers labels the marked end of a list role.
var markers = map[roles.Role]string{
	roles.Stack: "top",
	roles.Queue: "front",
	roles.Heap:  "root",
}

// renderView draws one snapshot as terminal text.
func renderView(v *structure.View, total int) string {
	var b strings.Builder

	line := "-"
	if v.Line != nil {
		line = fmt.Sprint(*v.Line)
	}
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Step %d/%d", v.Index+1, total)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  line %s · %s", line, v.Event)))
	b.WriteString("\n\n")

	if v.Finished {
		b.WriteString(styleBanner.Render("Execution Finished!"))
		b.WriteString("\n\n")
	}
	if v.NoVariables() {
		b.WriteString(StyleDim.Render("No variables in scope."))
		b.WriteString("\n")
	}

	for _, e := range v.Structures {
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}
	if len(v.Others) > 0 {
		b.WriteString(StyleDim.Render("Other variables"))
		b.WriteString("\n")
		for _, e := range v.Others {
			b.WriteString("  " + styleVarName.Render(e.Name) + StyleDim.Render(" = ") + renderGeneric(e.Model.(*structure.Generic)))
			b.WriteString("\n")
		}
	}
	if v.Output != "" {
		b.WriteString("\n" + StyleDim.Render("Output") + "\n")
		b.WriteString(stylePanel.Render(strings.TrimRight(v.Output, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEntry(e structure.Entry) string {
	head := styleVarName.Render(e.Name) + " " + styleRole.Render(e.Model.Role().String())
	var body string
	switch m := e.Model.(type) {
	case *structure.List:
		body = renderList(m, e.Empty)
	case *structure.Dict:
		body = renderDict(m, e.Empty)
	case *structure.LinkedList:
		body = renderLinked(m)
	case *structure.Tree:
		body = renderTree(m)
	case *structure.Graph:
		body = renderGraph(m)
	case *structure.Generic:
		body = renderGeneric(m)
	}
	return head + "\n" + stylePanel.Render(body) + "\n"
}

func renderList(l *structure.List, empty bool) string {
	if empty || len(l.Items) == 0 {
		return StyleDim.Render("(empty)")
	}
	marked := l.Marked()
	chips := make([]string, len(l.Items))
	for i, it := range l.Items {
		if i == marked {
			chips[i] = styleChipMarked.Render(it)
		} else {
			chips[i] = styleChip.Render(it)
		}
	}
	if l.Kind == roles.Stack {
		// Top of the stack is drawn first.
		for i, j := 0, len(chips)-1; i < j; i, j = i+1, j-1 {
			chips[i], chips[j] = chips[j], chips[i]
		}
		out := lipgloss.JoinVertical(lipgloss.Left, chips...)
		return out + "\n" + StyleDim.Render("↑ "+markers[l.Kind])
	}
	out := lipgloss.JoinHorizontal(lipgloss.Center, chips...)
	if m, ok := markers[l.Kind]; ok {
		out += "\n" + StyleDim.Render("↑ "+m)
	}
	return out
}

func renderDict(d *structure.Dict, empty bool) string {
	if empty || len(d.Pairs) == 0 {
		return StyleDim.Render("(empty)")
	}
	w := 0
	for _, p := range d.Pairs {
		w = max(w, lipgloss.Width(p.Key))
	}
	key := lipgloss.NewStyle().Foreground(colorCyan).Width(w)
	lines := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		lines[i] = key.Render(p.Key) + StyleDim.Render(" : ") + StyleValue.Render(p.Value)
	}
	return strings.Join(lines, "\n")
}

func renderLinked(l *structure.LinkedList) string {
	if len(l.Nodes) == 0 {
		if l.HeadNull {
			return StyleDim.Render("head → None")
		}
		return StyleDim.Render("(empty)")
	}
	parts := make([]string, 0, len(l.Nodes)+1)
	for _, n := range l.Nodes {
		s := StyleValue.Render(n.Value)
		switch {
		case n.Front && n.Rear:
			s += StyleDim.Render(" (front, rear)")
		case n.Front:
			s += StyleDim.Render(" (front)")
		case n.Rear:
			s += StyleDim.Render(" (rear)")
		}
		parts = append(parts, s)
	}
	tail := "None"
	if l.Truncated {
		tail = "…"
	}
	parts = append(parts, StyleDim.Render(tail))
	return strings.Join(parts, StyleDim.Render(" → "))
}

// renderTree draws the tree sideways, right subtree on top.
func renderTree(t *structure.Tree) string {
	if t.Empty() {
		return StyleDim.Render("(empty tree)")
	}
	var lines []string
	var walk func(idx int, prefix, edge string)
	walk = func(idx int, prefix, edge string) {
		n := t.Nodes[idx]
		if n.Right >= 0 {
			walk(n.Right, prefix+"    ", "┌── ")
		}
		label := StyleValue.Render(n.Value)
		if n.Truncated {
			label += StyleDim.Render(" …")
		}
		lines = append(lines, StyleDim.Render(prefix+edge)+label)
		if n.Left >= 0 {
			walk(n.Left, prefix+"    ", "└── ")
		}
	}
	walk(t.Root, "", "")
	return strings.Join(lines, "\n")
}

func renderGraph(g *structure.Graph) string {
	if len(g.Nodes) == 0 {
		return StyleDim.Render("(empty graph)")
	}
	adj := map[string][]string{}
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	lines := make([]string, 0, len(g.Nodes)+1)
	for _, n := range g.Nodes {
		nb := adj[n.ID]
		sort.Strings(nb)
		lines = append(lines, fillStyles[n.Fill].Render("● "+n.ID)+StyleDim.Render(" — "+strings.Join(nb, ", ")))
	}
	legend := fillStyles[structure.FillActive].Render("active") + StyleDim.Render(" · ") +
		fillStyles[structure.FillFrontier].Render("frontier") + StyleDim.Render(" · ") +
		fillStyles[structure.FillVisited].Render("visited")
	lines = append(lines, legend)
	return strings.Join(lines, "\n")
}

func renderGeneric(g *structure.Generic) string {
	switch {
	case g.Opaque:
		return StyleDim.Render(g.Text)
	case g.IsList:
		return StyleValue.Render("[" + strings.Join(g.Chips, ", ") + "]")
	}
	return StyleValue.Render(g.Text)
}
