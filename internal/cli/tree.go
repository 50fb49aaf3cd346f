package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"linkdeck/internal/content"
)

// Styles for the tree view. Colors adapt to light and dark terminals.
var (
	styleSection  = lipgloss.NewStyle().Bold(true)
	styleKey      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	styleInactive = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	styleKind     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"})
	styleEmpty    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
)

// renderTree prints the unified tree, one entry per line, children
// indented under their section. plain disables styling.
func renderTree(t *content.Tree, plain bool) string {
	if len(t.Items) == 0 {
		return paint(styleEmpty, "(no content)", plain) + "\n"
	}
	var b strings.Builder
	for i, it := range t.Items {
		writeItem(&b, &it, "", plain)
		if it.Kind != content.KindSection {
			continue
		}
		for j, ch := range it.Children {
			branch := "├─ "
			if j == len(it.Children)-1 {
				branch = "└─ "
			}
			writeItem(&b, &ch, branch, plain)
		}
		if len(it.Children) == 0 {
			b.WriteString("└─ " + paint(styleEmpty, "(empty)", plain) + "\n")
		}
		if i < len(t.Items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeItem(b *strings.Builder, it *content.Item, prefix string, plain bool) {
	title := it.Title()
	if it.Kind == content.KindSection {
		title = paint(styleSection, title, plain)
	}
	if !it.Active() {
		title = paint(styleInactive, it.Title(), plain) + " (hidden)"
	}
	fmt.Fprintf(b, "%s%s %s  %s\n",
		prefix,
		paint(styleKind, fmt.Sprintf("%-7s", it.Kind), plain),
		title,
		paint(styleKey, it.Key, plain),
	)
}

func paint(s lipgloss.Style, text string, plain bool) string {
	if plain {
		return text
	}
	return s.Render(text)
}
