// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Kind identifies a content kind stored in the blocks table.
type Kind string

const (
	KindLink  Kind = "link"
	KindText  Kind = "text"
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindMusic Kind = "music"
	KindEvent Kind = "event"
)

// Kinds lists every content kind in its canonical order. The order is also
// the tie-break order used when two items share the same position.
var Kinds = []Kind{KindLink, KindText, KindVideo, KindImage, KindMusic, KindEvent}

// Valid reports whether k is a known content kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Collection returns the plural name used for routes and list payloads,
// e.g. "links" for KindLink.
func (k Kind) Collection() string {
	return string(k) + "s"
}

// KindFromCollection maps a plural collection name back to its kind.
func KindFromCollection(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Collection() == name {
			return k, true
		}
	}
	return "", false
}

// Block holds the placement fields shared by every content kind. It is
// embedded in each kind so the JSON shape stays flat.
type Block struct {
	ID        int64     `json:"id"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	Archived  bool      `json:"archived"`
	SectionID *int64    `json:"sectionId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Placement returns the embedded block so callers can work with any kind
// through the Record interface.
func (b *Block) Placement() *Block { return b }

// Record is implemented by every content kind.
type Record interface {
	Kind() Kind
	Placement() *Block
}

// Link is a plain outbound link on the profile.
type Link struct {
	Block
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Clicks         int        `json:"clicks"`
	Sensitive      bool       `json:"sensitive"`
	Badge          *string    `json:"badge,omitempty"`
	Password       *string    `json:"password,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	LaunchesAt     *time.Time `json:"launchesAt,omitempty"`
	DeleteOnClicks *int       `json:"deleteOnClicks,omitempty"`
}

func (*Link) Kind() Kind { return KindLink }

// Visible reports whether the link should be shown publicly at time now.
func (l *Link) Visible(now time.Time) bool {
	if !l.Active || l.Archived {
		return false
	}
	if l.LaunchesAt != nil && now.Before(*l.LaunchesAt) {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	return true
}

// TextPosition controls text alignment of a text block.
type TextPosition string

const (
	TextLeft   TextPosition = "left"
	TextCenter TextPosition = "center"
	TextRight  TextPosition = "right"
)

// Text is a free-form text block. Description is Markdown.
type Text struct {
	Block
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Position      TextPosition `json:"position"`
	HasBackground bool         `json:"hasBackground"`
	IsCompact     bool         `json:"isCompact"`
}

func (*Text) Kind() Kind { return KindText }

// Video embeds a video by URL.
type Video struct {
	Block
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         string  `json:"url"`
}

func (*Video) Kind() Kind { return KindVideo }

// ImageLayout controls how the images of an image block are arranged.
type ImageLayout string

const (
	LayoutSingle   ImageLayout = "single"
	LayoutColumn   ImageLayout = "column"
	LayoutCarousel ImageLayout = "carousel"
)

// ImageEntry is one picture inside an image block.
type ImageEntry struct {
	URL     string  `json:"url"`
	LinkURL *string `json:"linkUrl,omitempty"`
}

// Image is a gallery of one or more pictures.
type Image struct {
	Block
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Layout      ImageLayout  `json:"layout"`
	Ratio       string       `json:"ratio"`
	SizePercent int          `json:"sizePercent"`
	Items       []ImageEntry `json:"items"`
}

func (*Image) Kind() Kind { return KindImage }

// Music embeds a track or playlist.
type Music struct {
	Block
	Title      *string `json:"title,omitempty"`
	URL        string  `json:"url"`
	UsePreview bool    `json:"usePreview"`
}

func (*Music) Kind() Kind { return KindMusic }

// EventType distinguishes countdown events from ticketed events.
type EventType string

const (
	EventCountdown EventType = "countdown"
	EventTickets   EventType = "tickets"
)

// Event is a countdown or ticket block.
type Event struct {
	Block
	Title       string    `json:"title"`
	Type        EventType `json:"type"`
	EventDate   string    `json:"eventDate"`
	EventTime   string    `json:"eventTime"`
	TargetMonth *int      `json:"targetMonth,omitempty"`
	TargetDay   *int      `json:"targetDay,omitempty"`
	Location    *string   `json:"location,omitempty"`
}

func (*Event) Kind() Kind { return KindEvent }

// NewRecord returns an empty record of the given kind, or nil for an
// unknown kind.
func NewRecord(k Kind) Record {
	switch k {
	case KindLink:
		return &Link{}
	case KindText:
		return &Text{}
	case KindVideo:
		return &Video{}
	case KindImage:
		return &Image{}
	case KindMusic:
		return &Music{}
	case KindEvent:
		return &Event{}
	}
	return nil
}
