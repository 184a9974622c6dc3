package status

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/inbox"
)

func TestRenderCompact(t *testing.T) {
	snap := inbox.Snapshot{UnreadCount: 2, LatestMessage: "Rota 3\natrasada  hoje"}

	output, err := Render(snap, Options{Format: FormatCompact})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if output != "🔔 2 | Rota 3 atrasada hoje" {
		t.Errorf("Unexpected compact output %q", output)
	}
}

func TestRenderCompactDefaultsAndTruncates(t *testing.T) {
	snap := inbox.Snapshot{UnreadCount: 0, LatestMessage: strings.Repeat("á", 50)}

	output, err := Render(snap, Options{BannerWidth: 10})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "🔔 0 | " + strings.Repeat("á", 9) + "…"
	if output != want {
		t.Errorf("Expected %q, got %q", want, output)
	}
}

func TestRenderEmptyWhenNothingToShow(t *testing.T) {
	for _, format := range []string{FormatCompact, FormatCountOnly} {
		output, err := Render(inbox.Snapshot{}, Options{Format: format})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", format, err)
		}
		if output != "" {
			t.Errorf("%s: expected empty output, got %q", format, output)
		}
	}
}

func TestRenderCountOnly(t *testing.T) {
	output, err := Render(inbox.Snapshot{UnreadCount: 7, LatestMessage: "x"}, Options{Format: FormatCountOnly})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if output != "7" {
		t.Errorf("Expected 7, got %q", output)
	}
}

func TestRenderDetailed(t *testing.T) {
	created := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	snap := inbox.Snapshot{
		Notifications: []domain.Notification{{ID: "1", CreatedAt: &created}, {ID: "2"}},
		UnreadCount:   1,
		LatestMessage: "Sem aula",
		LastUpdated:   time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local),
		LastError:     errors.New("HTTP 502"),
		ListAvailable: true,
		BannerSource:  inbox.BannerList,
	}

	output, err := Render(snap, Options{Format: FormatDetailed})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "unread: 1 | total: 2 | updated: 09:30:00 | banner (list): Sem aula | last poll failed: HTTP 502"
	if output != want {
		t.Errorf("Expected %q, got %q", want, output)
	}
}

func TestRenderDetailedUnavailable(t *testing.T) {
	output, _ := Render(inbox.Snapshot{}, Options{Format: FormatDetailed})
	if output != "unread: 0 | total: 0 | list endpoint unavailable" {
		t.Errorf("Unexpected output %q", output)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(inbox.Snapshot{}, Options{Format: "fancy"})
	if err == nil {
		t.Fatal("Expected error for unknown format")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trun…"},
		{"ab", 1, "…"},
		{"any", 0, "any"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
