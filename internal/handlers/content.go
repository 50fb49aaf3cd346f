// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
	"linkdeck/internal/store"
	"linkdeck/internal/validate"
)

// readOnlyFields are record keys a patch cannot change. Order moves only
// through Reorder and clicks only through the click-through route.
var readOnlyFields = []string{"id", "order", "clicks", "createdAt", "updatedAt"}

// List returns every record of one kind under its collection name,
// archived records included: {"links": [...]}.
func (a *API) List(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}
		recs, err := a.blockStore.List(sess.UserID, kind, true)
		if err != nil {
			serverError(w, "list "+kind.Collection()+" failed", err)
			return
		}
		if recs == nil {
			recs = []models.Record{}
		}
		writeJSON(w, http.StatusOK, map[string][]models.Record{kind.Collection(): recs})
	}
}

// Create stores a new record of one kind. New records are active unless
// the body says otherwise and are appended to their container.
func (a *API) Create(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}
		rec := models.NewRecord(kind)
		rec.Placement().Active = true
		if !decodeJSON(w, r, rec) {
			return
		}
		b := rec.Placement()
		b.ID, b.Order, b.Archived = 0, 0, false
		if l, ok := rec.(*models.Link); ok {
			l.Clicks = 0
		}

		if msg := validate.Record(rec); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		out, err := a.blockStore.Create(sess.UserID, rec)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "section not found")
			return
		}
		if err != nil {
			serverError(w, "create "+string(kind)+" failed", err)
			return
		}

		a.changed(r, sess, string(kind), content.RecordKey(kind, out.Placement().ID), "create")
		writeJSON(w, http.StatusCreated, out)
	}
}

// Update applies a partial update: the keys of the body replace the
// stored fields, every other field keeps its value.
func (a *API) Update(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var patch map[string]json.RawMessage
		if !decodeJSON(w, r, &patch) {
			return
		}

		cur, err := a.blockStore.Find(sess.UserID, kind, id)
		if err != nil {
			serverError(w, "find "+string(kind)+" failed", err)
			return
		}
		if cur == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		next, err := mergePatch(cur, patch)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid field value")
			return
		}
		if msg := validate.Record(next); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		out, err := a.blockStore.Update(sess.UserID, next)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) && next.Placement().SectionID != nil {
				writeError(w, http.StatusBadRequest, "section not found")
				return
			}
			storeError(w, "update "+string(kind)+" failed", err)
			return
		}

		a.changed(r, sess, string(kind), content.RecordKey(kind, id), "update")
		writeJSON(w, http.StatusOK, out)
	}
}

// Delete removes a record.
func (a *API) Delete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := a.blockStore.Delete(sess.UserID, kind, id); err != nil {
			storeError(w, "delete "+string(kind)+" failed", err)
			return
		}
		a.changed(r, sess, string(kind), content.RecordKey(kind, id), "delete")
		w.WriteHeader(http.StatusNoContent)
	}
}

// Reorder persists a full placement list: {"items": [{kind, id, sectionId}]}.
func (a *API) Reorder(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var in struct {
		Items []content.Placement `json:"items"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := a.blockStore.Reorder(sess.UserID, in.Items); err != nil {
		storeError(w, "reorder failed", err)
		return
	}
	a.changed(r, sess, "profile", sess.Username, "reorder")
	w.WriteHeader(http.StatusNoContent)
}

// mergePatch overlays patch onto the JSON form of cur and decodes the
// result into a fresh record of the same kind.
func mergePatch(cur models.Record, patch map[string]json.RawMessage) (models.Record, error) {
	raw, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range patch {
		m[k] = v
	}
	for _, k := range readOnlyFields {
		delete(m, k)
	}
	if raw, err = json.Marshal(m); err != nil {
		return nil, err
	}

	next := models.NewRecord(cur.Kind())
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, err
	}
	b, c := next.Placement(), cur.Placement()
	b.ID, b.Order, b.CreatedAt, b.UpdatedAt = c.ID, c.Order, c.CreatedAt, c.UpdatedAt
	if l, ok := next.(*models.Link); ok {
		l.Clicks = cur.(*models.Link).Clicks
	}
	return next, nil
}
