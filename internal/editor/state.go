// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"sync"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
)

// View is a complete, immutable picture of the editor state handed to
// subscribers and readers. Toggling and Editing hold the keys of items
// with a toggle in flight and items in edit mode.
type View struct {
	Tree     *content.Tree
	Profile  *models.Profile
	Toggling map[string]bool
	Editing  map[string]bool
}

// State is the single shared container for the editor: the content tree
// and the profile. Every mutation swaps in a whole new value under the
// lock, so readers never observe a partial update.
type State struct {
	mu      sync.RWMutex
	tree    *content.Tree
	profile *models.Profile
	// toggling and editing are replaced, never mutated, once published.
	toggling map[string]bool
	editing  map[string]bool
	subs     map[int]func(View)
	nextSub int
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		tree: content.Build(content.Snapshot{}),
		subs: make(map[int]func(View)),
	}
}

// View returns the current state.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view()
}

func (s *State) view() View {
	return View{Tree: s.tree, Profile: s.profile, Toggling: s.toggling, Editing: s.editing}
}

// Toggling reports whether a toggle of the item is in flight.
func (s *State) Toggling(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toggling[key]
}

// Editing reports whether the item is in edit mode.
func (s *State) Editing(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing[key]
}

// Tree returns the current content tree.
func (s *State) Tree() *content.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Profile returns a copy of the current profile, or nil before it is set.
func (s *State) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProfile(s.profile)
}

// Subscribe registers fn to be called with the new view after every
// change. The returned function removes the subscription.
func (s *State) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Replace rebuilds the tree from a snapshot.
func (s *State) Replace(snap content.Snapshot) {
	s.commit(func() bool {
		s.tree = content.Build(snap)
		return true
	})
}

// Update applies fn to a copy of the current snapshot and rebuilds the
// tree from the result. fn runs under the lock, so concurrent updates are
// applied one after the other and none is lost.
func (s *State) Update(fn func(*content.Snapshot)) {
	s.commit(func() bool {
		snap := s.tree.Snapshot()
		fn(&snap)
		s.tree = content.Build(snap)
		return true
	})
}

// Transform replaces the tree with the result of fn, which runs under the
// lock on the current tree. Nothing changes when fn fails or returns the
// tree it was given.
func (s *State) Transform(fn func(*content.Tree) (*content.Tree, error)) error {
	var err error
	s.commit(func() bool {
		var next *content.Tree
		next, err = fn(s.tree)
		if err != nil || next == s.tree {
			return false
		}
		s.tree = next
		return true
	})
	return err
}

// SetUserData replaces the profile.
func (s *State) SetUserData(p *models.Profile) {
	s.commit(func() bool {
		s.profile = copyProfile(p)
		return true
	})
}

// UpdateCustomization merges a patch into the profile customization and
// returns the customization it replaced.
func (s *State) UpdateCustomization(patch models.Customization) (previous models.Customization) {
	s.commit(func() bool {
		p := copyProfile(s.profile)
		if p == nil {
			p = &models.Profile{}
		}
		previous = p.Customization
		p.Customization = p.Customization.Merge(patch)
		s.profile = p
		return true
	})
	return previous
}

// beginToggle marks key as toggling. It reports false, changing nothing,
// when the key is already marked.
func (s *State) beginToggle(key string) bool {
	started := false
	s.commit(func() bool {
		if s.toggling[key] {
			return false
		}
		s.toggling = withFlag(s.toggling, key, true)
		started = true
		return true
	})
	return started
}

func (s *State) endToggle(key string) {
	s.commit(func() bool {
		if !s.toggling[key] {
			return false
		}
		s.toggling = withFlag(s.toggling, key, false)
		return true
	})
}

func (s *State) setEditing(key string, on bool) {
	s.commit(func() bool {
		if s.editing[key] == on {
			return false
		}
		s.editing = withFlag(s.editing, key, on)
		return true
	})
}

// withFlag returns a copy of set with key added or removed.
func withFlag(set map[string]bool, key string, on bool) map[string]bool {
	next := make(map[string]bool, len(set)+1)
	for k := range set {
		next[k] = true
	}
	if on {
		next[key] = true
	} else {
		delete(next, key)
	}
	return next
}

// commit runs fn under the lock and, if fn reports a change, notifies
// subscribers outside of it.
func (s *State) commit(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	v := s.view()
	subs := make([]func(View), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()

	for _, f := range subs {
		f(v)
	}
}

func copyProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Customization = p.Customization.Merge(nil)
	return &c
}
