// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor is the client-side mutation layer of the profile editor.
// It keeps the unified content tree in a State container, applies changes
// optimistically where the interaction calls for it, sends them to a
// Remote store and reconciles or rolls back depending on the outcome.
//
// Failures never abort other items: each one is recorded against the key
// of the item it concerns and can be read back with Err.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
	"linkdeck/internal/validate"
)

// DefaultTimeout bounds every remote call unless New is given another one.
const DefaultTimeout = 10 * time.Second

// ErrBusy is returned when a toggle is triggered again while the previous
// one for the same item is still in flight.
var ErrBusy = errors.New("item is busy")

// ValidationError is returned when local validation rejects a record. No
// request is sent in that case.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Remote is the content store the editor talks to.
type Remote interface {
	List(ctx context.Context, kind models.Kind) ([]models.Record, error)
	Sections(ctx context.Context) ([]models.Section, error)
	Profile(ctx context.Context) (*models.Profile, error)

	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, kind models.Kind, id int64, patch map[string]any) (models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
	Reorder(ctx context.Context, placements []content.Placement) error

	CreateSection(ctx context.Context, title string) (*models.Section, error)
	UpdateSection(ctx context.Context, id int64, patch map[string]any) (*models.Section, error)
	DeleteSection(ctx context.Context, id int64) error
	Ungroup(ctx context.Context, id int64) error

	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	UpdateCustomization(ctx context.Context, patch models.Customization) (*models.Profile, error)
}

// Editor coordinates local state and the remote store.
type Editor struct {
	remote  Remote
	state   *State
	timeout time.Duration

	// moveMu serializes reorders so a rollback never undoes a later move.
	moveMu sync.Mutex

	mu     sync.Mutex
	errs   map[string]error
	shadow map[string]shadowCopy
}

// New creates an editor over remote. A zero timeout selects DefaultTimeout.
func New(remote Remote, timeout time.Duration) *Editor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Editor{
		remote:  remote,
		state:   NewState(),
		timeout: timeout,
		errs:    make(map[string]error),
		shadow:  make(map[string]shadowCopy),
	}
}

// State returns the state container, for subscribing and reading.
func (e *Editor) State() *State { return e.state }

// Tree returns the current unified tree.
func (e *Editor) Tree() *content.Tree { return e.state.Tree() }

// Err returns the last error recorded for an item key, or nil.
func (e *Editor) Err(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs[key]
}

// Errors returns every recorded error by item key.
func (e *Editor) Errors() map[string]error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]error, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

func (e *Editor) setErr(key string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.errs, key)
		return
	}
	e.errs[key] = err
}

func (e *Editor) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, e.timeout)
}

// Load fetches every collection, the sections and the profile, and
// replaces the local state with them.
func (e *Editor) Load(ctx context.Context) error {
	ctx, cancel := e.ctx(ctx)
	defer cancel()

	var snap content.Snapshot
	for _, k := range models.Kinds {
		recs, err := e.remote.List(ctx, k)
		if err != nil {
			return fmt.Errorf("load %s: %w", k.Collection(), err)
		}
		for _, r := range recs {
			snap.Add(r)
		}
	}
	sections, err := e.remote.Sections(ctx)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}
	for _, s := range sections {
		snap.Sections = append(snap.Sections, content.NewSectionEntry(s))
	}
	profile, err := e.remote.Profile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	e.state.Replace(snap)
	e.state.SetUserData(profile)
	return nil
}

// Move reconciles a drag of activeKey over overKey, applies the new tree
// at once and persists the placements. When the store rejects them the
// placements of the tree before the move are restored.
func (e *Editor) Move(ctx context.Context, activeKey, overKey string) error {
	e.moveMu.Lock()
	defer e.moveMu.Unlock()

	var before, after *content.Tree
	err := e.state.Transform(func(t *content.Tree) (*content.Tree, error) {
		next, moved, err := content.Move(t, activeKey, overKey)
		if err != nil || !moved {
			return t, err
		}
		before, after = t, next
		return next, nil
	})
	if err != nil {
		e.setErr(activeKey, err)
		return err
	}
	if after == nil {
		return nil
	}

	rctx, cancel := e.ctx(ctx)
	defer cancel()
	if err := e.remote.Reorder(rctx, after.Placements()); err != nil {
		e.state.Update(func(s *content.Snapshot) { restorePlacements(s, before) })
		slog.Warn("reorder rejected, rolled back", "item", activeKey, "error", err)
		err = fmt.Errorf("move %s: %w", activeKey, err)
		e.setErr(activeKey, err)
		return err
	}
	e.setErr(activeKey, nil)
	return nil
}

// Toggling reports whether a toggle of the item is in flight. Subscribers
// see the same flag in View.Toggling.
func (e *Editor) Toggling(key string) bool { return e.state.Toggling(key) }

// Toggle flips the active flag of an item at once, then persists it. The
// flag is reverted when the store rejects the change. A second toggle of
// the same item while the first is in flight returns ErrBusy.
func (e *Editor) Toggle(ctx context.Context, key string) error {
	if !e.state.beginToggle(key) {
		return ErrBusy
	}
	defer e.state.endToggle(key)

	it, ok := e.state.Tree().Find(key)
	if !ok {
		return fmt.Errorf("toggle %s: %w", key, content.ErrUnknownKey)
	}
	active := !it.Active()
	e.state.Update(func(s *content.Snapshot) { setActive(s, key, active) })

	rctx, cancel := e.ctx(ctx)
	defer cancel()
	patch := map[string]any{"active": active}
	var err error
	if it.Kind == content.KindSection {
		if id, saved := it.Section.Ref.ID(); saved {
			_, err = e.remote.UpdateSection(rctx, id, patch)
		} else {
			err = content.ErrDraftSection
		}
	} else {
		_, err = e.remote.Update(rctx, it.Record().Kind(), it.Record().Placement().ID, patch)
	}
	if err != nil {
		e.state.Update(func(s *content.Snapshot) { setActive(s, key, !active) })
		err = fmt.Errorf("toggle %s: %w", key, err)
		e.setErr(key, err)
		return err
	}
	e.setErr(key, nil)
	return nil
}

func setActive(s *content.Snapshot, key string, active bool) {
	if sec := sectionByKey(s, key); sec != nil {
		sec.Active = active
		return
	}
	if r := recordByKey(s, key); r != nil {
		r.Placement().Active = active
	}
}

// Archive marks an item archived in the store and, once confirmed, drops it
// from the tree. Archiving a section leaves its content at the top level.
func (e *Editor) Archive(ctx context.Context, key string) error {
	it, ok := e.state.Tree().Find(key)
	if !ok {
		return fmt.Errorf("archive %s: %w", key, content.ErrUnknownKey)
	}
	rctx, cancel := e.ctx(ctx)
	defer cancel()

	patch := map[string]any{"archived": true}
	var err error
	if it.Kind == content.KindSection {
		id, saved := it.Section.Ref.ID()
		if !saved {
			err = content.ErrDraftSection
		} else {
			_, err = e.remote.UpdateSection(rctx, id, patch)
		}
	} else {
		_, err = e.remote.Update(rctx, it.Record().Kind(), it.Record().Placement().ID, patch)
	}
	if err != nil {
		err = fmt.Errorf("archive %s: %w", key, err)
		e.setErr(key, err)
		return err
	}

	e.state.Update(func(s *content.Snapshot) {
		if sec := sectionByKey(s, key); sec != nil {
			s.Sections = keep(s.Sections, func(x *content.SectionEntry) bool { return x.Ref.Key() == key })
			return
		}
		removeKey(s, key)
	})
	e.setErr(key, nil)
	return nil
}

// Delete removes an item from the store and, once confirmed, from the tree.
// Deleting a section deletes the content inside it.
func (e *Editor) Delete(ctx context.Context, key string) error {
	it, ok := e.state.Tree().Find(key)
	if !ok {
		return fmt.Errorf("delete %s: %w", key, content.ErrUnknownKey)
	}
	rctx, cancel := e.ctx(ctx)
	defer cancel()

	var err error
	if it.Kind == content.KindSection {
		if id, saved := it.Section.Ref.ID(); saved {
			err = e.remote.DeleteSection(rctx, id)
		}
	} else {
		err = e.remote.Delete(rctx, it.Record().Kind(), it.Record().Placement().ID)
	}
	if err != nil {
		err = fmt.Errorf("delete %s: %w", key, err)
		e.setErr(key, err)
		return err
	}

	e.state.Update(func(s *content.Snapshot) { removeKey(s, key) })
	e.mu.Lock()
	delete(e.errs, key)
	delete(e.shadow, key)
	e.mu.Unlock()
	e.state.setEditing(key, false)
	return nil
}

// Create validates rec, sends it to the store and appends the stored
// record to the tree. Nothing is inserted locally unless the store
// accepts it.
func (e *Editor) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if msg := validate.Record(rec); msg != "" {
		return nil, &ValidationError{Message: msg}
	}
	rctx, cancel := e.ctx(ctx)
	defer cancel()

	out, err := e.remote.Create(rctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Kind(), err)
	}
	e.state.Update(func(s *content.Snapshot) { s.Add(out) })
	return out, nil
}

// CreateSection shows a draft section at the end of the top level at once,
// then replaces it with the stored section. The draft is removed when the
// store rejects it. It returns the key of the saved section.
func (e *Editor) CreateSection(ctx context.Context, title string) (string, error) {
	if msg := validate.Section(title); msg != "" {
		return "", &ValidationError{Message: msg}
	}

	draft := content.Draft(uuid.NewString())
	e.state.Update(func(s *content.Snapshot) {
		order := 0
		for _, sec := range s.Sections {
			order = max(order, sec.Order+1)
		}
		for _, r := range s.Records() {
			if b := r.Placement(); b.SectionID == nil {
				order = max(order, b.Order+1)
			}
		}
		s.Sections = append(s.Sections, content.SectionEntry{
			Ref: draft, Title: title, Order: order, Active: true,
		})
	})

	rctx, cancel := e.ctx(ctx)
	defer cancel()
	saved, err := e.remote.CreateSection(rctx, title)
	if err != nil {
		e.state.Update(func(s *content.Snapshot) { removeKey(s, draft.Key()) })
		err = fmt.Errorf("create section: %w", err)
		e.setErr(draft.Key(), err)
		return "", err
	}

	entry := content.NewSectionEntry(*saved)
	e.state.Update(func(s *content.Snapshot) {
		if sec := sectionByKey(s, draft.Key()); sec != nil {
			entry.Order = sec.Order
			*sec = entry
			return
		}
		s.Sections = append(s.Sections, entry)
	})
	return entry.Ref.Key(), nil
}

// Ungroup dissolves a section in the store and, once confirmed, moves its
// content to the top level where the section was.
func (e *Editor) Ungroup(ctx context.Context, key string) error {
	it, ok := e.state.Tree().Find(key)
	if !ok || it.Kind != content.KindSection {
		return fmt.Errorf("ungroup %s: %w", key, content.ErrUnknownKey)
	}
	id, saved := it.Section.Ref.ID()
	if !saved {
		return fmt.Errorf("ungroup %s: %w", key, content.ErrDraftSection)
	}

	rctx, cancel := e.ctx(ctx)
	defer cancel()
	if err := e.remote.Ungroup(rctx, id); err != nil {
		err = fmt.Errorf("ungroup %s: %w", key, err)
		e.setErr(key, err)
		return err
	}
	return e.state.Transform(func(t *content.Tree) (*content.Tree, error) {
		return content.Ungroup(t, key)
	})
}

// UpdateProfile validates and saves the profile identity fields.
func (e *Editor) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if msg := validate.Profile(p.Username, p.Bio); msg != "" {
		return &ValidationError{Message: msg}
	}
	rctx, cancel := e.ctx(ctx)
	defer cancel()
	out, err := e.remote.UpdateProfile(rctx, p)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	e.state.SetUserData(out)
	return nil
}

// UpdateCustomization applies a customization patch at once and persists
// it, restoring the previous customization when the store rejects it.
func (e *Editor) UpdateCustomization(ctx context.Context, patch models.Customization) error {
	previous := e.state.UpdateCustomization(patch)

	rctx, cancel := e.ctx(ctx)
	defer cancel()
	out, err := e.remote.UpdateCustomization(rctx, patch)
	if err != nil {
		p := e.state.Profile()
		if p != nil {
			p.Customization = previous
			e.state.SetUserData(p)
		}
		return fmt.Errorf("update customization: %w", err)
	}
	e.state.SetUserData(out)
	return nil
}
