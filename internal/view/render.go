package view

import "github.com/charmbracelet/lipgloss"

// RenderStatus renders a status badge with theme styling. Solid
// badges are bold; neutral (unknown) badges render faint.
func RenderStatus(theme Theme, badge StatusBadge) string {
	style := lipgloss.NewStyle().Foreground(theme.StatusColor(badge.Variant))
	if badge.Variant == VariantSolid {
		style = style.Bold(true)
	}
	return style.Render(badge.Label)
}

// RenderPriority renders a priority badge with its tone color.
func RenderPriority(theme Theme, badge PriorityBadge) string {
	style := lipgloss.NewStyle().Foreground(theme.PriorityColor(badge.Tone))
	if badge.Tone == ToneCritical {
		style = style.Bold(true)
	}
	return style.Render(badge.Label)
}

// RenderCategory renders a category label. Unknown categories render
// with normal text so they stand out from the usual faint styling.
func RenderCategory(theme Theme, label CategoryLabel) string {
	color := theme.FaintText
	if !label.Known {
		color = theme.NormalText
	}
	return lipgloss.NewStyle().Foreground(color).Render(label.Label)
}
