package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Layout constants for the terminal report
const (
	ViewportWidth = 100
	InnerWidth    = ViewportWidth - 2 // content inside borders
	BarWidth      = 30                // widest bar in the series table
)

// Series table column widths
const (
	ColWidthMonth  = 10
	ColWidthCount  = 8
	ColWidthBar    = BarWidth + 1
	ColWidthMarker = 6
)

// BuildSeriesColumns returns the columns of the monthly series table
func BuildSeriesColumns() []table.Column {
	return []table.Column{
		{Title: "Month", Width: ColWidthMonth},
		{Title: "Count", Width: ColWidthCount},
		{Title: "", Width: ColWidthBar},
		{Title: "Peak", Width: ColWidthMarker},
	}
}

// Color palette - centralized color definitions
var (
	ColorBorder    = lipgloss.Color("33")  // blue, close to the chart line
	ColorHighlight = lipgloss.Color("24")  // dark blue background
	ColorText      = lipgloss.Color("15")  // bright white
	ColorAccent    = lipgloss.Color("226") // bright yellow
	ColorAccentDim = lipgloss.Color("220") // yellow (progress)
	ColorTextDim   = lipgloss.Color("241") // gray
	ColorError     = lipgloss.Color("196") // red
	ColorSuccess   = lipgloss.Color("82")  // green
)

// Common styles
var (
	// Border style for report boxes. Content inside uses InnerWidth.
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			MarginBottom(1)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true)

	// Accent style for peak months and counts
	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	BarStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	// AI badge shown next to model generated insights
	BadgeStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Padding(0, 1)
)

// BorderedBox returns a style for bordered content boxes
func BorderedBox() lipgloss.Style {
	return BorderStyle.
		Padding(0, 1).
		Width(ViewportWidth)
}

// RenderNormal renders text in the normal style
func RenderNormal(s string) string {
	return NormalStyle.Render(s)
}

// NewAppSpinner returns the spinner used while fetching
func NewAppSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorText)
	return s
}

// NewTableStyles returns bubbles/table styles matching the palette
func NewTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true)
	// the report table is static, so no row is shown as selected
	s.Selected = s.Cell
	return s
}

// NewAppTheme creates a huh theme matching the palette
func NewAppTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)
	t.Blurred.Title = t.Focused.Title

	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorTextDim)
	t.Blurred.Description = t.Focused.Description

	t.Focused.Base = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Base = t.Focused.Base

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBorder).
		Bold(true).
		Padding(0, 1)

	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 1)

	t.Focused.ErrorMessage = ErrorStyle
	t.Focused.ErrorIndicator = ErrorStyle

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(ColorBorder)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(ColorTextDim)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(ColorBorder)

	return t
}
