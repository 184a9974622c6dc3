// Package status formats the inbox state as a one-line status for shells and
// status bars.
package status

import (
	"fmt"
	"strings"

	"github.com/mobilize-transporte/avisos/internal/inbox"
)

// Output formats.
const (
	FormatCompact   = "compact"
	FormatDetailed  = "detailed"
	FormatCountOnly = "count-only"
)

const (
	icon = "🔔"
	// DefaultBannerWidth bounds the banner text in compact output.
	DefaultBannerWidth = 40
)

// Options holds parameters for status rendering.
type Options struct {
	Format string
	// BannerWidth truncates the banner in compact output; 0 uses DefaultBannerWidth.
	BannerWidth int
}

// Render formats snap. Compact and count-only output is empty when there is
// nothing unread and no banner to show.
func Render(snap inbox.Snapshot, opts Options) (string, error) {
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	switch format {
	case FormatCompact:
		return formatCompact(snap, opts.BannerWidth), nil
	case FormatDetailed:
		return formatDetailed(snap), nil
	case FormatCountOnly:
		return formatCountOnly(snap.UnreadCount), nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

func formatCompact(snap inbox.Snapshot, width int) string {
	if snap.UnreadCount == 0 && snap.LatestMessage == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultBannerWidth
	}
	out := fmt.Sprintf("%s %d", icon, snap.UnreadCount)
	if banner := Truncate(oneLine(snap.LatestMessage), width); banner != "" {
		out += " | " + banner
	}
	return out
}

func formatDetailed(snap inbox.Snapshot) string {
	parts := []string{fmt.Sprintf("unread: %d", snap.UnreadCount)}
	parts = append(parts, fmt.Sprintf("total: %d", len(snap.Notifications)))
	if !snap.LastUpdated.IsZero() {
		parts = append(parts, "updated: "+snap.LastUpdated.Local().Format("15:04:05"))
	}
	if snap.LatestMessage != "" {
		parts = append(parts, fmt.Sprintf("banner (%s): %s", snap.BannerSource, oneLine(snap.LatestMessage)))
	}
	if !snap.ListAvailable {
		parts = append(parts, "list endpoint unavailable")
	}
	if snap.LastError != nil {
		parts = append(parts, "last poll failed: "+snap.LastError.Error())
	}
	return strings.Join(parts, " | ")
}

func formatCountOnly(unread int) string {
	if unread == 0 {
		return ""
	}
	return fmt.Sprintf("%d", unread)
}

// Truncate shortens s to at most width runes, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
