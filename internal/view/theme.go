// Package view derives presentation state from raw entity fields:
// badge mappings with safe fallbacks for unknown enum values, and a
// column-based table renderer. Everything here is pure rendering
// logic; no I/O.
package view

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the terminal UI. ANSI 256-color
// codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Status colors.
	StatusOpen       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusResolved   lipgloss.Color

	// Priority colors.
	PriorityLow      lipgloss.Color
	PriorityMedium   lipgloss.Color
	PriorityHigh     lipgloss.Color
	PriorityCritical lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Toast colors.
	SuccessText lipgloss.Color
	ErrorText   lipgloss.Color

	// Copy-to-clipboard acknowledgement.
	CopiedAccent lipgloss.Color
}

// StatusColor returns the color for a status badge tone. Unknown
// tones render faint.
func (theme Theme) StatusColor(variant BadgeVariant) lipgloss.Color {
	switch variant {
	case VariantOutline:
		return theme.StatusOpen
	case VariantSolid:
		return theme.StatusInProgress
	case VariantSecondary:
		return theme.StatusResolved
	default:
		return theme.FaintText
	}
}

// PriorityColor returns the color for a priority tone. Unknown tones
// render with normal text color.
func (theme Theme) PriorityColor(tone PriorityTone) lipgloss.Color {
	switch tone {
	case ToneLow:
		return theme.PriorityLow
	case ToneMedium:
		return theme.PriorityMedium
	case ToneHigh:
		return theme.PriorityHigh
	case ToneCritical:
		return theme.PriorityCritical
	default:
		return theme.NormalText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusOpen:       lipgloss.Color("114"), // green
	StatusInProgress: lipgloss.Color("220"), // amber
	StatusResolved:   lipgloss.Color("245"), // gray

	PriorityLow:      lipgloss.Color("245"), // gray
	PriorityMedium:   lipgloss.Color("220"), // yellow
	PriorityHigh:     lipgloss.Color("208"), // orange
	PriorityCritical: lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	SuccessText: lipgloss.Color("114"),
	ErrorText:   lipgloss.Color("196"),

	CopiedAccent: lipgloss.Color("114"),
}
