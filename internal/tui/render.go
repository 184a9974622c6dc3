package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/freshness"
)

const (
	ageWidth            = 5
	defaultMessageWidth = 60
	unreadMarker        = "●"
	readMarker          = " "
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("4"))
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("3")).
			Padding(0, 1)
	unreadStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("4")).
			Foreground(lipgloss.Color("0"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("4")).
			Padding(0, 1)
)

// header renders the title line with the unread badge.
func header(unread int) string {
	title := titleStyle.Render("Avisos")
	if unread == 0 {
		return title
	}
	return title + " " + badgeStyle.Render(fmt.Sprintf("🔔 %d", unread))
}

// banner renders the latest message, or "" when there is none.
func banner(message string, width int) string {
	message = strings.Join(strings.Fields(message), " ")
	if message == "" {
		return ""
	}
	if width > 4 {
		message = truncate(message, width-2)
	}
	return bannerStyle.Render(message)
}

type rowState struct {
	notification domain.Notification
	watermark    freshness.Watermark
	selected     bool
	width        int
	now          time.Time
}

// row renders one notification line: unread marker, age, title and body.
func row(state rowState) string {
	n := state.notification
	marker := readMarker
	style := lipgloss.NewStyle()
	if n.IsNewerThan(state.watermark.Time()) {
		marker = unreadMarker
		style = unreadStyle
	}
	if state.selected {
		style = selectedStyle
	}

	text := n.Title
	if n.Body != "" {
		text += ": " + strings.Join(strings.Fields(n.Body), " ")
	}
	messageWidth := state.width - ageWidth - 4
	if state.width == 0 || messageWidth < 10 {
		messageWidth = defaultMessageWidth
	}
	text = truncate(text, messageWidth)

	age := calculateAge(n.CreatedAt, state.now)
	return style.Render(fmt.Sprintf("%s %-*s %s", marker, ageWidth, age, text))
}

// modal renders the newest notifications in a bordered box.
func modal(list []domain.Notification, limit, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Notifications"))
	b.WriteString("\n")
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("No notifications"))
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	inner := width - 4
	for i, n := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(unreadStyle.Render(truncate(n.Title, inner)))
		if n.Body != "" {
			b.WriteString("\n")
			b.WriteString(truncate(strings.Join(strings.Fields(n.Body), " "), inner))
		}
		if n.CreatedAt != nil {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(n.CreatedAt.Local().Format("02/01/2006 15:04")))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("a: mark as seen  esc: close"))
	return modalStyle.Render(b.String())
}

func calculateAge(createdAt *time.Time, now time.Time) string {
	if createdAt == nil {
		return "-"
	}
	if now.IsZero() {
		now = time.Now()
	}
	d := now.Sub(*createdAt)
	switch {
	case d < 0:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func truncate(value string, width int) string {
	if width <= 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	if width <= 3 {
		return string([]rune(value)[:width])
	}
	return string([]rune(value)[:width-3]) + "..."
}
