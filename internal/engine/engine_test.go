// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"strings"
	"testing"
	"time"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
)

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testProfile() *models.Profile {
	return &models.Profile{
		Username:    "demo",
		DisplayName: "Demo Creator",
		Bio:         "Making **things**",
	}
}

func testTree() *content.Tree {
	return content.Build(content.Snapshot{
		Links: []models.Link{
			{Block: models.Block{ID: 1, Order: 0, Active: true}, Title: "Website", URL: "https://example.com"},
			{Block: models.Block{ID: 2, Order: 2, Active: false}, Title: "Hidden", URL: "https://hidden.example"},
			{Block: models.Block{ID: 3, Order: 0, Active: true, SectionID: ptr(int64(10))}, Title: "Shop", URL: "https://shop.example", Badge: ptr("new")},
			{Block: models.Block{ID: 4, Order: 3, Active: true}, Title: "Expired", URL: "https://old.example", ExpiresAt: ptr(testNow.Add(-time.Hour))},
			{Block: models.Block{ID: 5, Order: 4, Active: true}, Title: "Soon", URL: "https://soon.example", LaunchesAt: ptr(testNow.Add(time.Hour))},
			{Block: models.Block{ID: 6, Order: 5, Active: true}, Title: "Secret", URL: "https://secret.example", Password: ptr("pw")},
		},
		Texts: []models.Text{
			{Block: models.Block{ID: 7, Order: 6, Active: true}, Title: "About", Description: "Hello <script>x</script>", Position: models.TextCenter},
		},
		Sections: []content.SectionEntry{
			{Ref: content.Saved(10), Title: "Merch", Order: 1, Active: true},
			{Ref: content.Saved(11), Title: "Empty", Order: 7, Active: true},
		},
	})
}

func render(t *testing.T, p *models.Profile, opts Options) string {
	t.Helper()
	opts.Now = testNow
	out, err := New().Render(p, testTree(), opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(out)
}

func TestRenderVisibility(t *testing.T) {
	page := render(t, testProfile(), Options{})

	for _, want := range []string{
		"Demo Creator",
		"<strong>things</strong>",
		`href="/go/1"`,
		"Merch",
		"Shop",
		`<span class="ld-badge">new</span>`,
		"About",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	for _, hidden := range []string{"Hidden", "Expired", "Soon", "Empty", "<script>x</script>", "https://secret.example", "EventSource"} {
		if strings.Contains(page, hidden) {
			t.Errorf("page should not contain %q", hidden)
		}
	}
}

func TestRenderOrder(t *testing.T) {
	page := render(t, testProfile(), Options{})

	order := []string{`id="link-1"`, `id="section-10"`, `id="link-3"`, `id="link-6"`, `id="text-7"`}
	last := -1
	for _, marker := range order {
		i := strings.Index(page, marker)
		if i < 0 {
			t.Fatalf("page missing %s", marker)
		}
		if i < last {
			t.Errorf("%s rendered out of order", marker)
		}
		last = i
	}
}

func TestRenderLockedLinkHidesTarget(t *testing.T) {
	page := render(t, testProfile(), Options{})
	if !strings.Contains(page, `href="/go/6"`) {
		t.Error("locked link should go through the click-through route")
	}
	if !strings.Contains(page, "ld-lock") {
		t.Error("locked link should be marked")
	}
}

func TestRenderPreviewScript(t *testing.T) {
	page := render(t, testProfile(), Options{Preview: true, EventsURL: "/preview/tok123/events"})
	if !strings.Contains(page, "new EventSource(") || !strings.Contains(page, "tok123") {
		t.Error("preview page should subscribe to content events")
	}
	if !strings.Contains(page, "noindex") {
		t.Error("preview page should not be indexed")
	}
}

func TestRenderPreviewWithoutEvents(t *testing.T) {
	page := render(t, testProfile(), Options{Preview: true})
	if strings.Contains(page, "EventSource") {
		t.Error("no event stream without an events URL")
	}
}

func TestRenderThemes(t *testing.T) {
	tests := []struct {
		theme string
		want  string
	}{
		{"", "<title>Demo Creator</title>"},
		{"classic", "<title>Demo Creator</title>"},
		{"minimal", "<title>@demo</title>"},
		{"unknown", "<title>Demo Creator</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			p := testProfile()
			p.Customization = models.Customization{"theme": tt.theme, "background": "#000000"}
			page := render(t, p, Options{})
			if !strings.Contains(page, tt.want) {
				t.Errorf("theme %q: missing %q", tt.theme, tt.want)
			}
			if !strings.Contains(page, "#000000") {
				t.Error("customized background not applied")
			}
		})
	}
}

func TestThemeCache(t *testing.T) {
	e := New()
	a, err := e.theme("minimal")
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	b, _ := e.theme("minimal")
	if a != b {
		t.Error("second lookup should hit the L1 cache")
	}
	if e.cache.get("classic") != nil {
		t.Error("classic should not be compiled yet")
	}
}

func TestVideoEmbed(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "https://www.youtube-nocookie.com/embed/abc123"},
		{"https://youtu.be/abc123", "https://www.youtube-nocookie.com/embed/abc123"},
		{"https://vimeo.com/42", "https://player.vimeo.com/video/42"},
		{"https://example.com/clip.mp4", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		if got := videoEmbed(tt.url); got != tt.want {
			t.Errorf("videoEmbed(%q): got %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestMusicEmbed(t *testing.T) {
	if got := musicEmbed("https://open.spotify.com/track/xyz"); got != "https://open.spotify.com/embed/track/xyz" {
		t.Errorf("spotify: got %q", got)
	}
	if got := musicEmbed("https://example.com/song.mp3"); got != "" {
		t.Errorf("unknown host: got %q", got)
	}
}

func TestCountdownTarget(t *testing.T) {
	t.Run("yearly target already passed rolls over", func(t *testing.T) {
		ev := &models.Event{Type: models.EventCountdown, TargetMonth: ptr(1), TargetDay: ptr(15)}
		if got := countdownTarget(ev, testNow); got != "2027-01-15T00:00:00Z" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("date and time", func(t *testing.T) {
		ev := &models.Event{Type: models.EventCountdown, EventDate: "2026-07-04", EventTime: "20:30"}
		if got := countdownTarget(ev, testNow); got != "2026-07-04T20:30:00Z" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("unparseable date", func(t *testing.T) {
		ev := &models.Event{Type: models.EventCountdown, EventDate: "soon"}
		if got := countdownTarget(ev, testNow); got != "" {
			t.Errorf("got %q", got)
		}
	})
}
