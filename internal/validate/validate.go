// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validate checks user input for content blocks, sections and the
// profile. The same rules run in the editor before a request is sent and in
// the API handlers before anything is written. Every function returns the
// first problem found as a user-facing message, or "" when the input is valid.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"linkdeck/internal/models"
)

// Validation limits for block, section and profile fields.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 1_000
	maxURLLen         = 2_048
	maxBadgeLen       = 30
	maxBioLen         = 300
	maxUsernameLen    = 30
	maxImages         = 10
)

var (
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe     = regexp.MustCompile(`^\d{2}:\d{2}$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Record validates any content kind.
func Record(r models.Record) string {
	switch v := r.(type) {
	case *models.Link:
		return Link(v)
	case *models.Text:
		return Text(v)
	case *models.Video:
		return Video(v)
	case *models.Image:
		return Image(v)
	case *models.Music:
		return Music(v)
	case *models.Event:
		return Event(v)
	}
	return "Unknown content type."
}

// Link requires a non-empty title and a well-formed http(s) URL.
func Link(l *models.Link) string {
	if msg := requiredTitle(l.Title); msg != "" {
		return msg
	}
	if msg := webURL(l.URL, "URL"); msg != "" {
		return msg
	}
	if l.Badge != nil && utf8.RuneCountInString(*l.Badge) > maxBadgeLen {
		return "Badge is too long (max 30 characters)."
	}
	if l.DeleteOnClicks != nil && *l.DeleteOnClicks < 1 {
		return "Delete-after-clicks must be at least 1."
	}
	if l.LaunchesAt != nil && l.ExpiresAt != nil && !l.LaunchesAt.Before(*l.ExpiresAt) {
		return "Launch date must be before the expiry date."
	}
	return ""
}

// Text requires a title and a description.
func Text(t *models.Text) string {
	if msg := requiredTitle(t.Title); msg != "" {
		return msg
	}
	if strings.TrimSpace(t.Description) == "" {
		return "Description is required."
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	switch t.Position {
	case "", models.TextLeft, models.TextCenter, models.TextRight:
	default:
		return "Position must be left, center or right."
	}
	return ""
}

// Video requires a well-formed URL.
func Video(v *models.Video) string {
	if msg := optionalText(v.Title, v.Description); msg != "" {
		return msg
	}
	return webURL(v.URL, "Video URL")
}

// Image requires at least one picture, each with a well-formed URL.
func Image(img *models.Image) string {
	if msg := optionalText(img.Title, img.Description); msg != "" {
		return msg
	}
	switch img.Layout {
	case "", models.LayoutSingle, models.LayoutColumn, models.LayoutCarousel:
	default:
		return "Layout must be single, column or carousel."
	}
	if len(img.Items) == 0 {
		return "At least one image is required."
	}
	if len(img.Items) > maxImages {
		return "Too many images (max 10)."
	}
	if img.SizePercent < 0 || img.SizePercent > 100 {
		return "Size must be between 0 and 100 percent."
	}
	for _, it := range img.Items {
		if msg := webURL(it.URL, "Image URL"); msg != "" {
			return msg
		}
		if it.LinkURL != nil && *it.LinkURL != "" {
			if msg := webURL(*it.LinkURL, "Image link"); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// Music requires a well-formed URL.
func Music(m *models.Music) string {
	if msg := optionalText(m.Title, nil); msg != "" {
		return msg
	}
	return webURL(m.URL, "Music URL")
}

// Event requires a title, a date (YYYY-MM-DD) and a time (HH:MM).
func Event(e *models.Event) string {
	if msg := requiredTitle(e.Title); msg != "" {
		return msg
	}
	switch e.Type {
	case models.EventCountdown, models.EventTickets:
	default:
		return "Event type must be countdown or tickets."
	}
	if strings.TrimSpace(e.EventDate) == "" {
		return "Event date is required."
	}
	if !dateRe.MatchString(e.EventDate) {
		return "Event date must look like 2026-12-31."
	}
	if strings.TrimSpace(e.EventTime) == "" {
		return "Event time is required."
	}
	if !timeRe.MatchString(e.EventTime) {
		return "Event time must look like 18:30."
	}
	if e.TargetMonth != nil && (*e.TargetMonth < 1 || *e.TargetMonth > 12) {
		return "Target month must be between 1 and 12."
	}
	if e.TargetDay != nil && (*e.TargetDay < 1 || *e.TargetDay > 31) {
		return "Target day must be between 1 and 31."
	}
	return ""
}

// Section requires a non-empty title.
func Section(title string) string {
	return requiredTitle(title)
}

// Profile checks the editable identity fields of a profile.
func Profile(username, bio string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 30 characters)."
	}
	if !usernameRe.MatchString(username) {
		return "Username may only contain lowercase letters, digits, '-' and '_'."
	}
	if utf8.RuneCountInString(bio) > maxBioLen {
		return "Bio is too long (max 300 characters)."
	}
	return ""
}

func requiredTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 100 characters)."
	}
	return ""
}

func optionalText(title, description *string) string {
	if title != nil && utf8.RuneCountInString(*title) > maxTitleLen {
		return "Title is too long (max 100 characters)."
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	return ""
}

// webURL checks that raw is an absolute http(s) URL with a host.
func webURL(raw, field string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return field + " is required."
	}
	if len(raw) > maxURLLen {
		return field + " is too long."
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return field + " must be a valid http(s) address."
	}
	return ""
}
