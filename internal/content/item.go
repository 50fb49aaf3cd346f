// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content merges the six content kinds and the sections of a
// profile into one ordered tree, and reconciles drag-and-drop moves on that
// tree into a new ordering plus the payload that persists it.
//
// Everything in this package is pure: trees are rebuilt or copied, never
// mutated in place, so a caller holding a *Tree always sees a complete
// snapshot.
package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"linkdeck/internal/models"
)

// RootKey is the container key of top-level entries.
const RootKey = "root"

var (
	// ErrUnknownKey is returned when a key is not present in the tree.
	ErrUnknownKey = errors.New("unknown item key")
	// ErrDraftSection is returned when an item is dropped into a section
	// that has not been saved yet.
	ErrDraftSection = errors.New("section is not saved yet")
)

// Kind discriminates unified items. It covers the six content kinds plus
// sections.
type Kind string

const (
	KindSection Kind = "section"
	KindLink    Kind = Kind(models.KindLink)
	KindText    Kind = Kind(models.KindText)
	KindVideo   Kind = Kind(models.KindVideo)
	KindImage   Kind = Kind(models.KindImage)
	KindMusic   Kind = Kind(models.KindMusic)
	KindEvent   Kind = Kind(models.KindEvent)
)

// rank is the tie-break order for entries sharing the same order value.
// Sections precede content at the same position.
func (k Kind) rank() int {
	switch k {
	case KindSection:
		return 0
	case KindLink:
		return 1
	case KindText:
		return 2
	case KindVideo:
		return 3
	case KindImage:
		return 4
	case KindMusic:
		return 5
	case KindEvent:
		return 6
	}
	panic(fmt.Sprintf("content: unhandled kind %q", string(k)))
}

// SectionRef identifies a section either by its database id (saved) or by
// a client-side temporary id (draft). The zero value is not a valid ref.
type SectionRef struct {
	id    int64
	tmp   string
	saved bool
}

// Saved returns a ref for a persisted section.
func Saved(id int64) SectionRef { return SectionRef{id: id, saved: true} }

// Draft returns a ref for a section that only exists locally.
func Draft(tempID string) SectionRef { return SectionRef{tmp: tempID} }

// ID returns the database id and true for saved sections.
func (r SectionRef) ID() (int64, bool) { return r.id, r.saved }

// IsDraft reports whether the section has not been persisted yet.
func (r SectionRef) IsDraft() bool { return !r.saved }

// Key returns the stable drag-and-drop key of the section.
func (r SectionRef) Key() string {
	if r.saved {
		return "section-" + strconv.FormatInt(r.id, 10)
	}
	return "section-draft-" + r.tmp
}

// SectionEntry is the local view of a section, saved or draft.
type SectionEntry struct {
	Ref     SectionRef
	Title   string
	Order   int
	Active  bool
	Editing bool

	// Links mirrors the section's child links for consumers of the legacy
	// section-scoped link list.
	Links []models.Link
}

// NewSectionEntry converts a stored section into a saved entry.
func NewSectionEntry(s models.Section) SectionEntry {
	return SectionEntry{
		Ref:    Saved(s.ID),
		Title:  s.Title,
		Order:  s.Order,
		Active: s.Active,
	}
}

// Item is one entry of the unified list. Exactly one of the record
// pointers is set, matching Kind. Children is only used by sections.
type Item struct {
	Key   string
	Kind  Kind
	Order int

	Section *SectionEntry
	Link    *models.Link
	Text    *models.Text
	Video   *models.Video
	Image   *models.Image
	Music   *models.Music
	Event   *models.Event

	Children []Item
}

// Record returns the content record of a non-section item.
func (it *Item) Record() models.Record {
	switch it.Kind {
	case KindSection:
		return nil
	case KindLink:
		return it.Link
	case KindText:
		return it.Text
	case KindVideo:
		return it.Video
	case KindImage:
		return it.Image
	case KindMusic:
		return it.Music
	case KindEvent:
		return it.Event
	}
	panic(fmt.Sprintf("content: unhandled kind %q", string(it.Kind)))
}

// Title returns a display title for any kind. Kinds with optional titles
// fall back to their URL.
func (it *Item) Title() string {
	switch it.Kind {
	case KindSection:
		return it.Section.Title
	case KindLink:
		return it.Link.Title
	case KindText:
		return it.Text.Title
	case KindVideo:
		return deref(it.Video.Title, it.Video.URL)
	case KindImage:
		return deref(it.Image.Title, "image")
	case KindMusic:
		return deref(it.Music.Title, it.Music.URL)
	case KindEvent:
		return it.Event.Title
	}
	panic(fmt.Sprintf("content: unhandled kind %q", string(it.Kind)))
}

// Active reports the active flag of the underlying record.
func (it *Item) Active() bool {
	if it.Kind == KindSection {
		return it.Section.Active
	}
	return it.Record().Placement().Active
}

// itemFromRecord wraps a copy of r in an item.
func itemFromRecord(r models.Record) Item {
	b := r.Placement()
	it := Item{
		Key:   RecordKey(r.Kind(), b.ID),
		Kind:  Kind(r.Kind()),
		Order: b.Order,
	}
	switch v := r.(type) {
	case *models.Link:
		c := *v
		it.Link = &c
	case *models.Text:
		c := *v
		it.Text = &c
	case *models.Video:
		c := *v
		it.Video = &c
	case *models.Image:
		c := *v
		c.Items = append([]models.ImageEntry(nil), v.Items...)
		it.Image = &c
	case *models.Music:
		c := *v
		it.Music = &c
	case *models.Event:
		c := *v
		it.Event = &c
	default:
		panic(fmt.Sprintf("content: unhandled record %T", r))
	}
	return it
}

// clone returns a deep copy of the item so the copy can be renumbered
// without touching the original tree.
func (it Item) clone() Item {
	if it.Kind == KindSection {
		s := *it.Section
		s.Links = append([]models.Link(nil), it.Section.Links...)
		out := it
		out.Section = &s
		out.Children = make([]Item, len(it.Children))
		for i, ch := range it.Children {
			out.Children[i] = ch.clone()
		}
		return out
	}
	return itemFromRecord(it.Record())
}

// setPlacement rewrites the order and owning section of the item.
func (it *Item) setPlacement(order int, sectionID *int64) {
	it.Order = order
	if it.Kind == KindSection {
		it.Section.Order = order
		return
	}
	b := it.Record().Placement()
	b.Order = order
	b.SectionID = sectionID
}

// RecordKey returns the synthetic key of a content record, e.g. "link-7".
func RecordKey(k models.Kind, id int64) string {
	return string(k) + "-" + strconv.FormatInt(id, 10)
}

// ParseKey splits a content or saved-section key into its kind and id.
func ParseKey(key string) (Kind, int64, error) {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 {
		return "", 0, fmt.Errorf("parse key %q: %w", key, ErrUnknownKey)
	}
	kind := Kind(key[:i])
	if kind != KindSection && !models.Kind(kind).Valid() {
		return "", 0, fmt.Errorf("parse key %q: %w", key, ErrUnknownKey)
	}
	id, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parse key %q: %w", key, ErrUnknownKey)
	}
	return kind, id, nil
}

func deref(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}
