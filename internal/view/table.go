package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// columnGap separates adjacent columns.
const columnGap = 2

// Column describes one table column: a header and a cell renderer
// over a row. Cell output may carry ANSI styling; it is truncated and
// padded to the column width.
type Column[Row any] struct {
	Header string

	// Width is the column's width in cells. Zero marks the flexible
	// column that absorbs the remaining space (at most one per table).
	Width int

	Cell func(Row) string
}

// Table renders an ordered sequence of rows using column descriptors.
// Rows render in input order; the server-defined order is preserved.
type Table[Row any] struct {
	Columns []Column[Row]
	Theme   Theme

	// EmptyTitle and EmptyHint render instead of a zero-row table.
	EmptyTitle string
	EmptyHint  string
}

// Render produces the table for the given rows at the given total
// width. The row at index selected is highlighted; pass -1 for no
// selection. An empty row slice yields the empty-state view.
func (t Table[Row]) Render(rows []Row, selected int, width int) string {
	if len(rows) == 0 {
		return t.renderEmpty(width)
	}

	widths := t.columnWidths(width)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Theme.HeaderForeground)

	var b strings.Builder
	for i, col := range t.Columns {
		b.WriteString(headerStyle.Render(pad(col.Header, widths[i])))
		if i < len(t.Columns)-1 {
			b.WriteString(strings.Repeat(" ", columnGap))
		}
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(t.Theme.BorderColor).
		Render(strings.Repeat("─", min(width, totalWidth(widths)))))
	b.WriteString("\n")

	selectedStyle := lipgloss.NewStyle().
		Background(t.Theme.SelectedBackground).
		Foreground(t.Theme.SelectedForeground)

	for rowIndex, row := range rows {
		var line strings.Builder
		for i, col := range t.Columns {
			line.WriteString(pad(col.Cell(row), widths[i]))
			if i < len(t.Columns)-1 {
				line.WriteString(strings.Repeat(" ", columnGap))
			}
		}
		rendered := line.String()
		if rowIndex == selected {
			rendered = selectedStyle.Render(ansi.Strip(rendered))
		}
		b.WriteString(rendered)
		if rowIndex < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderEmpty renders the empty-state view.
func (t Table[Row]) renderEmpty(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Theme.NormalText).
		Render(t.EmptyTitle)
	hint := lipgloss.NewStyle().
		Foreground(t.Theme.FaintText).
		Render(t.EmptyHint)

	block := title + "\n" + hint
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(block)
}

// columnWidths resolves fixed widths and gives the flexible column
// the remainder.
func (t Table[Row]) columnWidths(total int) []int {
	widths := make([]int, len(t.Columns))
	used := columnGap * (len(t.Columns) - 1)
	flexible := -1
	for i, col := range t.Columns {
		if col.Width == 0 {
			flexible = i
			continue
		}
		widths[i] = col.Width
		used += col.Width
	}
	if flexible >= 0 {
		remaining := total - used
		if remaining < 4 {
			remaining = 4
		}
		widths[flexible] = remaining
	}
	return widths
}

func totalWidth(widths []int) int {
	total := columnGap * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	return total
}

// pad truncates or pads a possibly-styled cell to the target width.
func pad(content string, width int) string {
	current := ansi.StringWidth(content)
	switch {
	case current > width:
		return ansi.Truncate(content, width, "…")
	case current < width:
		return content + strings.Repeat(" ", width-current)
	default:
		return content
	}
}
