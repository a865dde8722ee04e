package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
)

const (
	eyebrowText      = "WhatsApp Product Review Collector"
	titleText        = "All Reviews"
	loadingEmptyText = "Loading reviews..."
	successEmptyText = "No reviews collected yet."
	errorEmptyText   = "No reviews loaded."

	userColWidth    = 16
	productColWidth = 18
	minReviewWidth  = 10
	colGap          = "  "

	headerLines  = 3
	columnsLines = 2
	footerLines  = 1
)

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(m.renderColumns())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

// renderHeader renders the eyebrow, the title with refresh status and the
// last updated line.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	status := styles.MutedText.Render("r: Refresh")
	if snap.Phase == state.PhaseLoading {
		status = m.spinner.View() + " " + styles.WarningText.Render("Refreshing...")
	}
	title := styles.Title.Render(titleText) + colGap + status
	if snap.IsOffline() {
		title += colGap + styles.Badge.Render("OFFLINE")
	}

	updated := styles.MutedText.Render("Updated:") + " "
	if text := snap.LastUpdatedText(); text != "" {
		ts, _ := snap.LastUpdated()
		updated += styles.Text.Render(text) + " " +
			styles.FaintText.Render("("+humanizeAge(m.now(), ts)+")")
	} else {
		updated += styles.FaintText.Render("never")
	}
	if !snap.LastSuccess.IsZero() {
		updated += colGap + styles.FaintText.Render("synced "+humanizeAge(m.now(), snap.LastSuccess))
	}

	lines := []string{
		styles.Eyebrow.Render(eyebrowText),
		title,
		updated,
	}
	return styles.Header.Width(m.width).Render(strings.Join(lines, "\n"))
}

// renderBanner returns the error banner, or "" outside the error phase.
func (m Model) renderBanner() string {
	if m.snapshot.Phase != state.PhaseError {
		return ""
	}
	styles := m.theme.Styles()
	text := bannerText(m.snapshot.ErrorMessage)
	if label := classifyFetchError(m.snapshot.LastError); label != "" {
		text = styles.DangerText.Render(label) + colGap + text
	}
	return styles.Banner.Width(max(m.width-2, 1)).Render(text)
}

func bannerText(message string) string {
	message = strings.TrimSuffix(strings.TrimSpace(message), ".")
	if message == "" {
		message = "unexpected error"
	}
	return "Could not load reviews. " + message + ". Try refreshing."
}

// classifyFetchError returns a short label for a failed fetch.
func classifyFetchError(err error) string {
	if err == nil {
		return ""
	}
	var (
		respErr      *reviews.ResponseError
		parseErr     *reviews.ParseError
		transportErr *reviews.TransportError
		dnsErr       *net.DNSError
		netErr       net.Error
	)
	switch {
	case errors.As(err, &respErr):
		return fmt.Sprintf("HTTP %d", respErr.StatusCode)
	case errors.As(err, &parseErr):
		return "Unreadable response"
	case errors.As(err, &dnsErr):
		return "Host not found"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "Service not running"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "Connection timeout"
	case errors.As(err, &transportErr):
		return "Service unreachable"
	default:
		return "Error"
	}
}

type columnWidths struct {
	user, product, review, timestamp int
}

func (m Model) columns() columnWidths {
	ts := len("2006-01-02 15:04")
	if !m.prefs.Clock24h {
		ts = len("2006-01-02 03:04 PM")
	}
	review := m.width - 2 - userColWidth - productColWidth - ts - 3*len(colGap)
	return columnWidths{
		user:      userColWidth,
		product:   productColWidth,
		review:    max(review, minReviewWidth),
		timestamp: ts,
	}
}

func (m Model) renderColumns() string {
	w := m.columns()
	row := " " + cell("User", w.user) + colGap + cell("Product", w.product) + colGap +
		cell("Review", w.review) + colGap + cell("Timestamp", w.timestamp)
	return m.theme.Styles().Columns.Width(m.width).Render(row)
}

// renderList renders the visible window of reviews, or the empty state.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	height := m.listHeight()
	items := m.snapshot.Reviews

	if len(items) == 0 {
		var body string
		switch m.snapshot.Phase {
		case state.PhaseSuccess:
			body = " " + styles.MutedText.Render(successEmptyText)
		case state.PhaseError:
			body = " " + styles.MutedText.Render(errorEmptyText)
		case state.PhaseLoading:
			body = " " + styles.MutedText.Render(loadingEmptyText)
		}
		// Idle renders an empty list until the first cycle begins.
		return lipgloss.NewStyle().Height(height).Render(body)
	}

	w := m.columns()
	end := min(m.offset+height, len(items))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		r := items[i]
		row := " " + cell(r.UserName, w.user) + colGap + cell(r.ProductName, w.product) + colGap +
			cell(r.ProductReview, w.review) + colGap +
			cell(formatReviewTime(r.CreatedAt.Time, m.prefs.Clock24h), w.timestamp)
		if i == m.selected {
			lines = append(lines, styles.Selected.Width(m.width).Render(row))
			continue
		}
		lines = append(lines, styles.Text.Render(row))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bar := m.help.ShortHelpView(m.keys.ShortHelp())
	bar += colGap + styles.FaintText.Render("theme: "+m.theme.Name)
	if n := len(m.snapshot.Reviews); n > 0 {
		bar += colGap + styles.FaintText.Render(fmt.Sprintf("%d/%d", m.selected+1, n))
	}
	return styles.Footer.Width(m.width).Render(bar)
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	body := styles.Title.Render("Keys") + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()) +
		"\n\n" + styles.FaintText.Render("Press any key to close")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, styles.Overlay.Render(body))
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.Title.Render("Log") + " " + styles.MutedText.Render(truncateMiddle(m.logPath, max(m.width-10, 10)))

	content := m.logView.View()
	switch {
	case m.logErr != nil:
		content = styles.DangerText.Render(m.logErr.Error())
	case m.logView.TotalLineCount() <= 1 && strings.TrimSpace(content) == "":
		content = styles.MutedText.Render("No log entries yet.")
	}

	footer := styles.FaintText.Render("j/k scroll  L/esc close")
	return styles.Overlay.Width(max(m.width-2, 1)).Render(title + "\n" + content + "\n" + footer)
}

// listHeight is the number of review rows that fit on screen.
func (m Model) listHeight() int {
	used := headerLines + columnsLines + footerLines
	if m.snapshot.Phase == state.PhaseError {
		used++
	}
	return max(m.height-used, 1)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
