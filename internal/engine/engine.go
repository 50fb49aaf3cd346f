// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders public profile pages. It walks the unified
// content tree, keeps what visitors may see, and executes one of the
// embedded html/template themes chosen by the profile customization.
package engine

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"linkdeck/internal/content"
	"linkdeck/internal/markdown"
	"linkdeck/internal/models"
)

//go:embed themes/*.html
var themeFS embed.FS

// DefaultTheme is used when the profile names no theme or an unknown one.
const DefaultTheme = "classic"

// Themes lists the themes a profile can select with the "theme" key.
var Themes = []string{"classic", "minimal"}

// Customization keys read by the themes, with their defaults.
var themeDefaults = map[string]string{
	"background":  "#f4f4f5",
	"textColor":   "#18181b",
	"buttonColor": "#ffffff",
	"buttonText":  "#18181b",
	"buttonStyle": "rounded",
	"font":        "system-ui, sans-serif",
}

// PageData holds everything a theme can use.
type PageData struct {
	Username    string
	DisplayName string
	Bio         template.HTML
	AvatarURL   string
	Style       map[string]string
	Items       []ItemView
	Preview     bool
	EventsURL   string
	Year        int
}

// ItemView is one visible entry of the page. Only the fields of its kind
// are set.
type ItemView struct {
	Kind  string
	Key   string
	Title string

	// link
	Href      string
	Badge     string
	Sensitive bool
	Locked    bool

	// text
	Body          template.HTML
	Position      string
	HasBackground bool
	IsCompact     bool

	// video, music
	EmbedURL string
	URL      string

	// image
	Layout      string
	Ratio       string
	SizePercent int
	Images      []models.ImageEntry
	Description string

	// event
	EventType string
	When      string
	Location  string
	Countdown string // RFC 3339 target for countdowns

	// section
	Children []ItemView
}

// Options controls a single render.
type Options struct {
	// Preview marks the page as the editor's live preview frame.
	Preview bool
	// EventsURL is the event stream the preview frame reloads on.
	EventsURL string
	// Now decides which scheduled links are live. Zero means time.Now.
	Now time.Time
}

// Engine renders profile pages from embedded themes. Compiled themes are
// kept in an in-memory cache (L1).
type Engine struct {
	cache *templateCache
}

// New creates a new rendering engine with an empty L1 cache.
func New() *Engine {
	return &Engine{cache: newTemplateCache()}
}

// Render produces the public page of a profile. Inactive items, links
// outside their schedule and empty sections are left out.
func (e *Engine) Render(p *models.Profile, tree *content.Tree, opts Options) ([]byte, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	data := PageData{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Bio:         markdown.Render(p.Bio),
		Style:       style(p.Customization),
		Items:       visible(tree.Items, now),
		Preview:     opts.Preview,
		EventsURL:   opts.EventsURL,
		Year:        now.Year(),
	}
	if data.DisplayName == "" {
		data.DisplayName = "@" + p.Username
	}
	if p.AvatarURL != nil {
		data.AvatarURL = *p.AvatarURL
	}

	tmpl, err := e.theme(p.Customization.Get("theme", DefaultTheme))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return nil, fmt.Errorf("execute theme: %w", err)
	}
	return buf.Bytes(), nil
}

// theme returns the compiled theme, falling back to DefaultTheme for
// names that are not in Themes.
func (e *Engine) theme(name string) (*template.Template, error) {
	known := false
	for _, t := range Themes {
		if t == name {
			known = true
			break
		}
	}
	if !known {
		name = DefaultTheme
	}

	if tmpl := e.cache.get(name); tmpl != nil {
		return tmpl, nil
	}
	tmpl, err := template.ParseFS(themeFS, "themes/partials.html", "themes/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("compile theme %s: %w", name, err)
	}
	e.cache.put(name, tmpl)
	return tmpl, nil
}

func style(c models.Customization) map[string]string {
	out := make(map[string]string, len(themeDefaults))
	for k, def := range themeDefaults {
		out[k] = c.Get(k, def)
	}
	return out
}

func visible(items []content.Item, now time.Time) []ItemView {
	var out []ItemView
	for i := range items {
		it := &items[i]
		if !it.Active() {
			continue
		}
		if it.Kind == content.KindLink && !it.Link.Visible(now) {
			continue
		}
		v, ok := view(it, now)
		if ok {
			out = append(out, v)
		}
	}
	return out
}

func view(it *content.Item, now time.Time) (ItemView, bool) {
	v := ItemView{Kind: string(it.Kind), Key: it.Key, Title: it.Title()}
	switch it.Kind {
	case content.KindSection:
		v.Children = visible(it.Children, now)
		if len(v.Children) == 0 {
			return v, false
		}
	case content.KindLink:
		l := it.Link
		v.Href = "/go/" + strconv.FormatInt(l.ID, 10)
		v.Sensitive = l.Sensitive
		v.Locked = l.Password != nil && *l.Password != ""
		if l.Badge != nil {
			v.Badge = *l.Badge
		}
	case content.KindText:
		t := it.Text
		v.Body = markdown.Render(t.Description)
		v.Position = string(t.Position)
		v.HasBackground = t.HasBackground
		v.IsCompact = t.IsCompact
	case content.KindVideo:
		v.URL = it.Video.URL
		v.EmbedURL = videoEmbed(it.Video.URL)
		if it.Video.Description != nil {
			v.Description = *it.Video.Description
		}
	case content.KindImage:
		img := it.Image
		if len(img.Items) == 0 {
			return v, false
		}
		v.Layout = string(img.Layout)
		v.Ratio = img.Ratio
		v.SizePercent = img.SizePercent
		if v.SizePercent <= 0 || v.SizePercent > 100 {
			v.SizePercent = 100
		}
		v.Images = img.Items
		if img.Title == nil {
			v.Title = ""
		}
		if img.Description != nil {
			v.Description = *img.Description
		}
	case content.KindMusic:
		v.URL = it.Music.URL
		if it.Music.UsePreview {
			v.EmbedURL = musicEmbed(it.Music.URL)
		}
	case content.KindEvent:
		ev := it.Event
		v.EventType = string(ev.Type)
		v.When = strings.TrimSpace(ev.EventDate + " " + ev.EventTime)
		if ev.Location != nil {
			v.Location = *ev.Location
		}
		if ev.Type == models.EventCountdown {
			v.Countdown = countdownTarget(ev, now)
		}
	}
	return v, true
}

// videoEmbed returns the player URL for known hosts, or "" to fall back
// to a plain link.
func videoEmbed(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id)
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id)
		}
	case "vimeo.com":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://player.vimeo.com/video/" + url.PathEscape(id)
		}
	}
	return ""
}

// musicEmbed returns the embeddable player URL for Spotify and
// SoundCloud links, or "".
func musicEmbed(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Hostname() {
	case "open.spotify.com":
		return "https://open.spotify.com/embed" + u.Path
	case "soundcloud.com":
		return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(raw)
	}
	return ""
}

// countdownTarget resolves the moment a countdown runs to. A countdown
// with a target month and day repeats every year.
func countdownTarget(ev *models.Event, now time.Time) string {
	if ev.TargetMonth != nil && ev.TargetDay != nil {
		t := time.Date(now.Year(), time.Month(*ev.TargetMonth), *ev.TargetDay, 0, 0, 0, 0, now.Location())
		if t.Before(now) {
			t = t.AddDate(1, 0, 0)
		}
		return t.Format(time.RFC3339)
	}
	layout, value := "2006-01-02", ev.EventDate
	if ev.EventTime != "" {
		layout, value = "2006-01-02 15:04", ev.EventDate+" "+ev.EventTime
	}
	t, err := time.ParseInLocation(layout, value, now.Location())
	if err != nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
