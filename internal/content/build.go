// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"fmt"
	"sort"

	"linkdeck/internal/models"
)

// Snapshot is the flat state the tree is built from: the six content
// collections plus the sections, as returned by the store.
type Snapshot struct {
	Links    []models.Link
	Texts    []models.Text
	Videos   []models.Video
	Images   []models.Image
	Musics   []models.Music
	Events   []models.Event
	Sections []SectionEntry
}

// Records returns every content record of the snapshot as pointers into its
// slices.
func (s *Snapshot) Records() []models.Record {
	out := make([]models.Record, 0, len(s.Links)+len(s.Texts)+len(s.Videos)+
		len(s.Images)+len(s.Musics)+len(s.Events))
	for i := range s.Links {
		out = append(out, &s.Links[i])
	}
	for i := range s.Texts {
		out = append(out, &s.Texts[i])
	}
	for i := range s.Videos {
		out = append(out, &s.Videos[i])
	}
	for i := range s.Images {
		out = append(out, &s.Images[i])
	}
	for i := range s.Musics {
		out = append(out, &s.Musics[i])
	}
	for i := range s.Events {
		out = append(out, &s.Events[i])
	}
	return out
}

// Add appends a copy of rec to the matching collection.
func (s *Snapshot) Add(rec models.Record) {
	switch v := rec.(type) {
	case *models.Link:
		s.Links = append(s.Links, *v)
	case *models.Text:
		s.Texts = append(s.Texts, *v)
	case *models.Video:
		s.Videos = append(s.Videos, *v)
	case *models.Image:
		s.Images = append(s.Images, *v)
	case *models.Music:
		s.Musics = append(s.Musics, *v)
	case *models.Event:
		s.Events = append(s.Events, *v)
	default:
		panic(fmt.Sprintf("content: unhandled record %T", rec))
	}
}

// NewSnapshot collects stored records and sections into a snapshot.
func NewSnapshot(recs []models.Record, sections []models.Section) Snapshot {
	var s Snapshot
	for _, r := range recs {
		s.Add(r)
	}
	for _, sec := range sections {
		s.Sections = append(s.Sections, NewSectionEntry(sec))
	}
	return s
}

// Tree is the unified, ordered view of a snapshot. Items holds the top-level
// entries; section entries carry their children.
type Tree struct {
	Items []Item

	// container maps every item key to the key of the container holding it:
	// RootKey for top-level content, the section key for children, and the
	// section's own key for sections.
	container map[string]string
}

// Build merges a snapshot into a unified tree. Archived records are skipped.
// Records whose section is unknown fall back to the top level. The result
// depends only on the snapshot.
func Build(s Snapshot) *Tree {
	sections := make(map[int64]int, len(s.Sections))
	var root []Item
	for _, sec := range s.Sections {
		e := sec
		e.Links = nil
		it := Item{Key: e.Ref.Key(), Kind: KindSection, Order: e.Order, Section: &e}
		if id, ok := e.Ref.ID(); ok {
			sections[id] = len(root)
		}
		root = append(root, it)
	}

	for _, r := range s.Records() {
		b := r.Placement()
		if b.Archived {
			continue
		}
		it := itemFromRecord(r)
		if b.SectionID != nil {
			if idx, ok := sections[*b.SectionID]; ok {
				root[idx].Children = append(root[idx].Children, it)
				continue
			}
		}
		root = append(root, it)
	}

	for i := range root {
		if root[i].Kind != KindSection {
			continue
		}
		sortItems(root[i].Children)
		for _, ch := range root[i].Children {
			if ch.Kind == KindLink {
				root[i].Section.Links = append(root[i].Section.Links, *ch.Link)
			}
		}
	}
	sortItems(root)

	t := &Tree{Items: root}
	t.reindex()
	return t
}

// sortItems orders items by order, then kind rank, then key. Keys are unique
// so the order is total.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if ra, rb := a.Kind.rank(), b.Kind.rank(); ra != rb {
			return ra < rb
		}
		ia, ib := a.id(), b.id()
		if ia != ib {
			return ia < ib
		}
		return a.Key < b.Key
	})
}

// id returns the numeric id of the item, or zero for draft sections.
func (it *Item) id() int64 {
	if it.Kind == KindSection {
		id, _ := it.Section.Ref.ID()
		return id
	}
	return it.Record().Placement().ID
}

func (t *Tree) reindex() {
	t.container = make(map[string]string)
	for _, it := range t.Items {
		if it.Kind == KindSection {
			t.container[it.Key] = it.Key
			for _, ch := range it.Children {
				t.container[ch.Key] = it.Key
			}
			continue
		}
		t.container[it.Key] = RootKey
	}
}

// Container returns the key of the container holding key.
func (t *Tree) Container(key string) (string, bool) {
	c, ok := t.container[key]
	return c, ok
}

// Find returns the item with the given key.
func (t *Tree) Find(key string) (*Item, bool) {
	c, ok := t.container[key]
	if !ok {
		return nil, false
	}
	if c == RootKey || c == key {
		for i := range t.Items {
			if t.Items[i].Key == key {
				return &t.Items[i], true
			}
		}
		return nil, false
	}
	sec := t.section(c)
	if sec == nil {
		return nil, false
	}
	for i := range sec.Children {
		if sec.Children[i].Key == key {
			return &sec.Children[i], true
		}
	}
	return nil, false
}

// Len returns the number of entries in the tree, sections and children
// included.
func (t *Tree) Len() int { return len(t.container) }

func (t *Tree) section(key string) *Item {
	for i := range t.Items {
		if t.Items[i].Key == key {
			return &t.Items[i]
		}
	}
	return nil
}

// Snapshot flattens the tree back into collections, carrying the order and
// section of every entry as placed in the tree.
func (t *Tree) Snapshot() Snapshot {
	var s Snapshot
	add := func(it *Item) {
		switch it.Kind {
		case KindSection:
			e := *it.Section
			e.Links = append([]models.Link(nil), it.Section.Links...)
			s.Sections = append(s.Sections, e)
		case KindLink:
			s.Links = append(s.Links, *it.Link)
		case KindText:
			s.Texts = append(s.Texts, *it.Text)
		case KindVideo:
			s.Videos = append(s.Videos, *it.Video)
		case KindImage:
			c := *it.Image
			c.Items = append([]models.ImageEntry(nil), it.Image.Items...)
			s.Images = append(s.Images, c)
		case KindMusic:
			s.Musics = append(s.Musics, *it.Music)
		case KindEvent:
			s.Events = append(s.Events, *it.Event)
		}
	}
	for i := range t.Items {
		add(&t.Items[i])
		for j := range t.Items[i].Children {
			add(&t.Items[i].Children[j])
		}
	}
	return s
}

// Placement is one entry of the reorder payload.
type Placement struct {
	Kind      Kind   `json:"kind"`
	ID        int64  `json:"id"`
	SectionID *int64 `json:"sectionId"`
}

// Placements lists every saved entry in pre-order: each top-level entry,
// followed by its children when it is a section. The position in the list
// is the new order within the entry's container.
func (t *Tree) Placements() []Placement {
	out := make([]Placement, 0, t.Len())
	for _, it := range t.Items {
		if it.Kind != KindSection {
			out = append(out, Placement{Kind: it.Kind, ID: it.id()})
			continue
		}
		id, ok := it.Section.Ref.ID()
		if !ok {
			continue
		}
		out = append(out, Placement{Kind: KindSection, ID: id})
		for _, ch := range it.Children {
			sid := id
			out = append(out, Placement{Kind: ch.Kind, ID: ch.id(), SectionID: &sid})
		}
	}
	return out
}
