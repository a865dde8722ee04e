package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors used by the UI.
type Theme struct {
	Name string

	Background string
	Surface    string
	SurfaceAlt string

	SelectionBg   string
	SelectionText string
	Border        string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles contains pre-built Lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Eyebrow  lipgloss.Style
	Title    lipgloss.Style
	Header   lipgloss.Style
	Footer   lipgloss.Style
	Banner   lipgloss.Style
	Columns  lipgloss.Style
	Selected lipgloss.Style
	Badge    lipgloss.Style
	Overlay  lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Eyebrow: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(t.Danger)).
			Padding(0, 1),
		Columns: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color(t.Border)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Background)).
			Background(lipgloss.Color(t.Warning)).
			Padding(0, 1),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Accent)).
			Padding(0, 1),
	}
}

var themes = map[string]Theme{
	"Nightfall": nightfallTheme(),
	"Paper":     paperTheme(),
}

var themeOrder = []string{"Nightfall", "Paper"}

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func nightfallTheme() Theme {
	// Tailwind slate/sky palette.
	return Theme{
		Name: "Nightfall",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		SurfaceAlt: "#1e293b", // slate-800

		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50
		Border:        "#334155", // slate-700

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Faint:   "#64748b",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",
	}
}

func paperTheme() Theme {
	return Theme{
		Name: "Paper",

		Background: "#fafaf9", // stone-50
		Surface:    "#f5f5f4", // stone-100
		SurfaceAlt: "#e7e5e4", // stone-200

		SelectionBg:   "#0f766e", // teal-700
		SelectionText: "#ffffff",
		Border:        "#d6d3d1", // stone-300

		Text:    "#1c1917",
		Muted:   "#57534e",
		Faint:   "#a8a29e",
		Accent:  "#0f766e",
		Success: "#15803d",
		Warning: "#b45309",
		Danger:  "#b91c1c",
		Info:    "#0e7490",
	}
}
