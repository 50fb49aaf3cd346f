// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import "fmt"

// Move applies a drag of activeKey dropped over overKey and returns the
// resulting tree with every order renumbered to its position in its
// container. The input tree is left untouched.
//
// moved is false when the gesture is a no-op (no drop target, or dropped on
// itself). Sections only move among top-level entries. Content dropped on a
// section header is appended to that section; content dropped on an item
// takes that item's position in the item's container.
func Move(t *Tree, activeKey, overKey string) (next *Tree, moved bool, err error) {
	if overKey == "" || activeKey == overKey {
		return t, false, nil
	}
	activeC, ok := t.container[activeKey]
	if !ok {
		return nil, false, fmt.Errorf("move %s: %w", activeKey, ErrUnknownKey)
	}
	overC, ok := t.container[overKey]
	if !ok {
		return nil, false, fmt.Errorf("move over %s: %w", overKey, ErrUnknownKey)
	}

	items := make([]Item, len(t.Items))
	for i, it := range t.Items {
		items[i] = it.clone()
	}

	if activeC == activeKey {
		// Section: resolve the drop target to a top-level position.
		target := overKey
		if overC != RootKey && overC != overKey {
			target = overC
		}
		from, to := indexOf(items, activeKey), indexOf(items, target)
		if from == to {
			return t, false, nil
		}
		items = arrayMove(items, from, to)
	} else {
		items, moved, err = moveContent(items, activeKey, activeC, overKey, overC)
		if err != nil {
			return nil, false, err
		}
		if !moved {
			return t, false, nil
		}
	}

	renumber(items)
	next = &Tree{Items: items}
	next.reindex()
	return next, true, nil
}

func moveContent(items []Item, activeKey, activeC, overKey, overC string) ([]Item, bool, error) {
	// Target container and insertion index. Dropping on a section header
	// appends into it.
	targetC, at := overC, -1
	if overC == overKey {
		targetC = overKey
	}
	if targetC != RootKey {
		sec := &items[indexOf(items, targetC)]
		if sec.Section.Ref.IsDraft() {
			return nil, false, fmt.Errorf("move %s into %s: %w", activeKey, targetC, ErrDraftSection)
		}
	}
	list := func(c string) *[]Item {
		if c == RootKey {
			return &items
		}
		return &items[indexOf(items, c)].Children
	}

	if targetC == activeC {
		l := list(activeC)
		from := indexOf(*l, activeKey)
		to := len(*l) - 1
		if targetC != overKey {
			to = indexOf(*l, overKey)
		}
		if from == to {
			return items, false, nil
		}
		*l = arrayMove(*l, from, to)
		return items, true, nil
	}

	// Cross-container: remove from the source first so indexes into the
	// target are taken after removal when source and target are root.
	src := list(activeC)
	from := indexOf(*src, activeKey)
	moving := (*src)[from]
	*src = append((*src)[:from:from], (*src)[from+1:]...)

	dst := list(targetC)
	if targetC != overKey {
		at = indexOf(*dst, overKey)
	}
	if at < 0 {
		at = len(*dst)
	}
	*dst = insertAt(*dst, at, moving)
	return items, true, nil
}

// renumber assigns order = position within each container and rewrites the
// section of every content entry.
func renumber(items []Item) {
	for i := range items {
		items[i].setPlacement(i, nil)
		if items[i].Kind != KindSection {
			continue
		}
		sid, saved := items[i].Section.Ref.ID()
		items[i].Section.Links = items[i].Section.Links[:0]
		for j := range items[i].Children {
			ch := &items[i].Children[j]
			if saved {
				id := sid
				ch.setPlacement(j, &id)
			} else {
				ch.setPlacement(j, nil)
			}
			if ch.Kind == KindLink {
				items[i].Section.Links = append(items[i].Section.Links, *ch.Link)
			}
		}
	}
}

func indexOf(items []Item, key string) int {
	for i := range items {
		if items[i].Key == key {
			return i
		}
	}
	return -1
}

// arrayMove removes the element at from and inserts it at to.
func arrayMove(items []Item, from, to int) []Item {
	out := make([]Item, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	return insertAt(out, to, items[from])
}

func insertAt(items []Item, at int, it Item) []Item {
	out := make([]Item, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, it)
	return append(out, items[at:]...)
}

// Ungroup dissolves the section with the given key: its children take the
// section's place at the top level in their current order, and the section
// is dropped. Orders are renumbered.
func Ungroup(t *Tree, sectionKey string) (*Tree, error) {
	if c, ok := t.container[sectionKey]; !ok || c != sectionKey {
		return nil, fmt.Errorf("ungroup %s: %w", sectionKey, ErrUnknownKey)
	}
	items := make([]Item, 0, len(t.Items))
	for _, it := range t.Items {
		if it.Key != sectionKey {
			items = append(items, it.clone())
			continue
		}
		for _, ch := range it.Children {
			items = append(items, ch.clone())
		}
	}
	renumber(items)
	next := &Tree{Items: items}
	next.reindex()
	return next, nil
}
