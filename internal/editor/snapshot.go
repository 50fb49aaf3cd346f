// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"encoding/json"
	"fmt"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
)

// recordByKey returns a pointer into the snapshot's slices, so changes
// through it land in the snapshot.
func recordByKey(s *content.Snapshot, key string) models.Record {
	for _, r := range s.Records() {
		if content.RecordKey(r.Kind(), r.Placement().ID) == key {
			return r
		}
	}
	return nil
}

func sectionByKey(s *content.Snapshot, key string) *content.SectionEntry {
	for i := range s.Sections {
		if s.Sections[i].Ref.Key() == key {
			return &s.Sections[i]
		}
	}
	return nil
}

// assign overwrites dst with src. Both must be the same kind.
func assign(dst, src models.Record) {
	switch d := dst.(type) {
	case *models.Link:
		*d = *src.(*models.Link)
	case *models.Text:
		*d = *src.(*models.Text)
	case *models.Video:
		*d = *src.(*models.Video)
	case *models.Image:
		*d = *src.(*models.Image)
	case *models.Music:
		*d = *src.(*models.Music)
	case *models.Event:
		*d = *src.(*models.Event)
	default:
		panic(fmt.Sprintf("editor: unhandled record %T", dst))
	}
}

func keep[T any](list []T, drop func(*T) bool) []T {
	out := list[:0:0]
	for i := range list {
		if !drop(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// removeKey drops the record or section with the given key. Removing a
// section also removes the content inside it.
func removeKey(s *content.Snapshot, key string) {
	if sec := sectionByKey(s, key); sec != nil {
		id, saved := sec.Ref.ID()
		s.Sections = keep(s.Sections, func(e *content.SectionEntry) bool { return e.Ref.Key() == key })
		if !saved {
			return
		}
		in := func(b *models.Block) bool { return b.SectionID != nil && *b.SectionID == id }
		s.Links = keep(s.Links, func(v *models.Link) bool { return in(&v.Block) })
		s.Texts = keep(s.Texts, func(v *models.Text) bool { return in(&v.Block) })
		s.Videos = keep(s.Videos, func(v *models.Video) bool { return in(&v.Block) })
		s.Images = keep(s.Images, func(v *models.Image) bool { return in(&v.Block) })
		s.Musics = keep(s.Musics, func(v *models.Music) bool { return in(&v.Block) })
		s.Events = keep(s.Events, func(v *models.Event) bool { return in(&v.Block) })
		return
	}
	kind, id, err := content.ParseKey(key)
	if err != nil {
		return
	}
	switch kind {
	case content.KindLink:
		s.Links = keep(s.Links, func(v *models.Link) bool { return v.ID == id })
	case content.KindText:
		s.Texts = keep(s.Texts, func(v *models.Text) bool { return v.ID == id })
	case content.KindVideo:
		s.Videos = keep(s.Videos, func(v *models.Video) bool { return v.ID == id })
	case content.KindImage:
		s.Images = keep(s.Images, func(v *models.Image) bool { return v.ID == id })
	case content.KindMusic:
		s.Musics = keep(s.Musics, func(v *models.Music) bool { return v.ID == id })
	case content.KindEvent:
		s.Events = keep(s.Events, func(v *models.Event) bool { return v.ID == id })
	case content.KindSection:
	}
}

// restorePlacements copies order and section of every entry present in
// from onto s. Other fields of s are left alone, so changes confirmed
// since from was taken survive.
func restorePlacements(s *content.Snapshot, from *content.Tree) {
	for _, r := range s.Records() {
		it, ok := from.Find(content.RecordKey(r.Kind(), r.Placement().ID))
		if !ok {
			continue
		}
		old := it.Record().Placement()
		b := r.Placement()
		b.Order = old.Order
		b.SectionID = old.SectionID
	}
	for i := range s.Sections {
		if it, ok := from.Find(s.Sections[i].Ref.Key()); ok {
			s.Sections[i].Order = it.Section.Order
		}
	}
}

// fields returns the JSON object of a record without its placement keys.
// Active is left out too since it is only changed through Toggle.
func fields(rec models.Record) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for _, k := range []string{"id", "order", "active", "sectionId", "archived", "createdAt", "updatedAt"} {
		delete(m, k)
	}
	return m, nil
}

// fromFields builds a record of the same kind as rec from f, keeping the
// placement of rec.
func fromFields(rec models.Record, f map[string]json.RawMessage) (models.Record, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := models.NewRecord(rec.Kind())
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	*out.Placement() = *rec.Placement()
	return out, nil
}

// withFields returns a copy of rec with the given fields overlaid.
func withFields(rec models.Record, patch map[string]json.RawMessage) (models.Record, error) {
	m, err := fields(rec)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		m[k] = v
	}
	return fromFields(rec, m)
}

// diff returns the fields of cur that differ from base.
func diff(base, cur map[string]json.RawMessage) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	for k, v := range cur {
		if string(base[k]) != string(v) {
			out[k] = v
		}
	}
	for k := range base {
		if _, ok := cur[k]; !ok {
			out[k] = json.RawMessage("null")
		}
	}
	return out
}
