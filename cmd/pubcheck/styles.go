// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette of the report cards. Each color has a light and a dark terminal
// variant.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	muted   = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	passed  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	failed  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	errored = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	node    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	SubtitleStyle = lipgloss.NewStyle().Foreground(muted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(passed)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(failed)
	WarningStyle  = lipgloss.NewStyle().Foreground(errored)
	// CmdStyle marks plug-in names, commands and node paths.
	CmdStyle     = lipgloss.NewStyle().Foreground(node)
	VerboseStyle = SubtitleStyle.Faint(true)

	instanceStyle = SubtitleStyle.Italic(true)
	messageStyle  = lipgloss.NewStyle().PaddingLeft(4)
	invalidStyle  = messageStyle.Foreground(muted)
)
