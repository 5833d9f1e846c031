package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/irfansharif/simplepedia/pkg/article"
)

// DefaultTimeFormat renders edit times the way a US-English locale would.
const DefaultTimeFormat = "1/2/2006, 3:04:05 PM"

// formatRelativeTime returns a human-readable age of t as seen at now.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "min")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// formatEdited renders an edit time in the local zone using layout,
// followed by its relative age.
func formatEdited(t, now time.Time, layout string) string {
	if t.IsZero() {
		return "never edited"
	}
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(layout), formatRelativeTime(t, now))
}

// truncateString truncates a string to the given width, adding ellipsis if needed.
func truncateString(s string, width int) string {
	if width <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// renderIndex renders the sectioned title index. cursor indexes the
// flattened, sorted article list; current is the selected article's id.
func renderIndex(sections []article.Section, cursor int, current int64, width, rows int, styles Styles) string {
	var lines []string
	cursorLine := 0
	i := 0
	for _, sec := range sections {
		lines = append(lines, styles.Section.Render(sec.Letter))
		for _, a := range sec.Articles {
			title := truncateString(a.Title, width-2)
			style := styles.ListItemTitle
			if a.ID == current {
				style = styles.CurrentTitle
			}
			if i == cursor {
				cursorLine = len(lines)
				lines = append(lines, styles.SelectionMarker.Render("")+styles.SelectedTitle.Inherit(style).Render(title))
			} else {
				lines = append(lines, "  "+style.Render(title))
			}
			i++
		}
	}

	// Scroll so the cursor stays visible.
	if rows > 0 && len(lines) > rows {
		start := 0
		if cursorLine >= rows {
			start = cursorLine - rows + 1
		}
		lines = lines[start:min(start+rows, len(lines))]
	}
	return strings.Join(lines, "\n")
}

// renderDetail renders a single article.
func renderDetail(a article.Article, now time.Time, layout string, width int, styles Styles) string {
	body := a.Extract
	if body == "" {
		body = styles.Muted.Render("No extract.")
	} else {
		body = styles.DetailBody.Width(width).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.DetailTitle.Render(a.Title),
		body,
		styles.DetailMeta.Render("Edited "+formatEdited(a.Edited, now, layout)),
	)
}

// renderEmptyState renders the empty state message.
func renderEmptyState(styles Styles) string {
	return styles.Muted.Render("No articles yet. Press 'n' to write one.")
}

// renderNoSelection renders the detail pane placeholder.
func renderNoSelection(styles Styles) string {
	return styles.Muted.Render("Select an article with enter.")
}
