package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// truncate shortens a string to the given number of terminal cells, adding
// an ellipsis if needed. Wide runes such as CJK and emoji count as two cells.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(value) <= limit {
		return value
	}
	if limit <= 3 {
		return ansi.Truncate(value, limit, "")
	}
	return ansi.Truncate(value, limit, "...")
}

// truncateMiddle shortens a string by removing characters from the middle,
// keeping more of the end (usually a file name).
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 5 {
		return string(runes[:limit])
	}
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

// padRight pads a string with spaces to the given cell width.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// cell truncates and pads value to exactly width terminal cells.
func cell(value string, width int) string {
	return padRight(truncate(singleLine(value), width), width)
}

// singleLine collapses newlines and runs of whitespace.
func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// humanizeAge formats how long ago ts was relative to now.
func humanizeAge(now, ts time.Time) string {
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatReviewTime(ts time.Time, clock24h bool) string {
	if ts.IsZero() {
		return ""
	}
	if clock24h {
		return ts.Local().Format("2006-01-02 15:04")
	}
	return ts.Local().Format("2006-01-02 03:04 PM")
}
