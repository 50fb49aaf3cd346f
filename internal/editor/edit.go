// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
	"linkdeck/internal/validate"
)

// ErrNotEditing is returned by Change, Save and Cancel for an item that is
// not in edit mode.
var ErrNotEditing = errors.New("item is not being edited")

// shadowCopy is the state of an item when editing began.
type shadowCopy struct {
	fields map[string]json.RawMessage
	title  string // sections only
}

// BeginEdit puts an item in edit mode and remembers its current fields so
// Cancel can restore them and Save can send only what changed.
func (e *Editor) BeginEdit(key string) error {
	it, ok := e.state.Tree().Find(key)
	if !ok {
		return fmt.Errorf("edit %s: %w", key, content.ErrUnknownKey)
	}

	var sc shadowCopy
	if it.Kind == content.KindSection {
		sc.title = it.Section.Title
		e.state.Update(func(s *content.Snapshot) {
			if sec := sectionByKey(s, key); sec != nil {
				sec.Editing = true
			}
		})
	} else {
		f, err := fields(it.Record())
		if err != nil {
			return fmt.Errorf("edit %s: %w", key, err)
		}
		sc.fields = f
	}

	e.mu.Lock()
	e.shadow[key] = sc
	e.mu.Unlock()
	e.state.setEditing(key, true)
	return nil
}

// Editing reports whether an item, section or record, is in edit mode.
// Subscribers see the same flag in View.Editing.
func (e *Editor) Editing(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.shadow[key]
	return ok
}

// Change applies field edits locally without contacting the store. For a
// section the only field is "title".
func (e *Editor) Change(key string, patch map[string]any) error {
	if !e.Editing(key) {
		return fmt.Errorf("change %s: %w", key, ErrNotEditing)
	}
	raw := make(map[string]json.RawMessage, len(patch))
	for k, v := range patch {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("change %s: %w", key, err)
		}
		raw[k] = b
	}

	var err error
	e.state.Update(func(s *content.Snapshot) {
		if sec := sectionByKey(s, key); sec != nil {
			if t, ok := patch["title"].(string); ok {
				sec.Title = t
			}
			return
		}
		r := recordByKey(s, key)
		if r == nil {
			err = content.ErrUnknownKey
			return
		}
		var next models.Record
		if next, err = withFields(r, raw); err == nil {
			assign(r, next)
		}
	})
	if err != nil {
		return fmt.Errorf("change %s: %w", key, err)
	}
	return nil
}

// Save validates the edited item and sends one update with the fields that
// differ from when editing began. The item leaves edit mode on success;
// on failure it stays in edit mode with the error recorded.
func (e *Editor) Save(ctx context.Context, key string) error {
	e.mu.Lock()
	sc, ok := e.shadow[key]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("save %s: %w", key, ErrNotEditing)
	}
	it, ok := e.state.Tree().Find(key)
	if !ok {
		return fmt.Errorf("save %s: %w", key, content.ErrUnknownKey)
	}

	if it.Kind == content.KindSection {
		return e.saveSection(ctx, key, it.Section, sc)
	}

	rec := it.Record()
	if msg := validate.Record(rec); msg != "" {
		err := &ValidationError{Message: msg}
		e.setErr(key, err)
		return err
	}
	cur, err := fields(rec)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	changed := diff(sc.fields, cur)
	if len(changed) > 0 {
		patch := make(map[string]any, len(changed))
		for k, v := range changed {
			patch[k] = v
		}
		rctx, cancel := e.ctx(ctx)
		defer cancel()
		out, err := e.remote.Update(rctx, rec.Kind(), rec.Placement().ID, patch)
		if err != nil {
			err = fmt.Errorf("save %s: %w", key, err)
			e.setErr(key, err)
			return err
		}
		// Take the stored fields but keep the local placement, which may
		// have moved while the request was in flight.
		e.state.Update(func(s *content.Snapshot) {
			if r := recordByKey(s, key); r != nil {
				b := *r.Placement()
				assign(r, out)
				*r.Placement() = b
			}
		})
	}
	e.endEdit(key)
	return nil
}

func (e *Editor) saveSection(ctx context.Context, key string, sec *content.SectionEntry, sc shadowCopy) error {
	if msg := validate.Section(sec.Title); msg != "" {
		err := &ValidationError{Message: msg}
		e.setErr(key, err)
		return err
	}
	id, saved := sec.Ref.ID()
	if !saved {
		return fmt.Errorf("save %s: %w", key, content.ErrDraftSection)
	}
	if sec.Title != sc.title {
		rctx, cancel := e.ctx(ctx)
		defer cancel()
		if _, err := e.remote.UpdateSection(rctx, id, map[string]any{"title": sec.Title}); err != nil {
			err = fmt.Errorf("save %s: %w", key, err)
			e.setErr(key, err)
			return err
		}
	}
	e.endEdit(key)
	return nil
}

// Cancel leaves edit mode and restores the fields captured by BeginEdit.
func (e *Editor) Cancel(key string) error {
	e.mu.Lock()
	sc, ok := e.shadow[key]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("cancel %s: %w", key, ErrNotEditing)
	}

	var err error
	e.state.Update(func(s *content.Snapshot) {
		if sec := sectionByKey(s, key); sec != nil {
			sec.Title = sc.title
			return
		}
		if r := recordByKey(s, key); r != nil {
			var prev models.Record
			if prev, err = fromFields(r, sc.fields); err == nil {
				assign(r, prev)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("cancel %s: %w", key, err)
	}
	e.endEdit(key)
	return nil
}

func (e *Editor) endEdit(key string) {
	e.mu.Lock()
	delete(e.shadow, key)
	delete(e.errs, key)
	e.mu.Unlock()
	e.state.Update(func(s *content.Snapshot) {
		if sec := sectionByKey(s, key); sec != nil {
			sec.Editing = false
		}
	})
	e.state.setEditing(key, false)
}
