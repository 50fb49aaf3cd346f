// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
	"linkdeck/internal/validate"
)

// ListSections returns {"sections": [...]} with each section's legacy
// link list populated.
func (a *API) ListSections(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	secs, err := a.sectionStore.List(sess.UserID)
	if err != nil {
		serverError(w, "list sections failed", err)
		return
	}
	if secs == nil {
		secs = []models.Section{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.Section{"sections": secs})
}

// CreateSection appends a section to the top level.
func (a *API) CreateSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var in struct {
		Title  string `json:"title"`
		Active *bool  `json:"active"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if msg := validate.Section(in.Title); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := in.Active == nil || *in.Active

	sec, err := a.sectionStore.Create(sess.UserID, in.Title, active)
	if err != nil {
		serverError(w, "create section failed", err)
		return
	}
	a.changed(r, sess, "section", content.Saved(sec.ID).Key(), "create")
	writeJSON(w, http.StatusCreated, sec)
}

// UpdateSection applies a partial update of title, active and archived.
func (a *API) UpdateSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Title    *string `json:"title"`
		Active   *bool   `json:"active"`
		Archived *bool   `json:"archived"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	sec, err := a.sectionStore.Find(sess.UserID, id)
	if err != nil {
		serverError(w, "find section failed", err)
		return
	}
	if sec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if in.Title != nil {
		sec.Title = strings.TrimSpace(*in.Title)
	}
	if in.Active != nil {
		sec.Active = *in.Active
	}
	if in.Archived != nil {
		sec.Archived = *in.Archived
	}
	if msg := validate.Section(sec.Title); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	out, err := a.sectionStore.Update(sess.UserID, sec)
	if err != nil {
		storeError(w, "update section failed", err)
		return
	}
	a.changed(r, sess, "section", content.Saved(id).Key(), "update")
	writeJSON(w, http.StatusOK, out)
}

// DeleteSection removes a section and the content inside it.
func (a *API) DeleteSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.sectionStore.Delete(sess.UserID, id); err != nil {
		storeError(w, "delete section failed", err)
		return
	}
	a.changed(r, sess, "section", content.Saved(id).Key(), "delete")
	w.WriteHeader(http.StatusNoContent)
}

// Ungroup dissolves a section and keeps its content at the top level.
func (a *API) Ungroup(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.sectionStore.Ungroup(sess.UserID, id); err != nil {
		storeError(w, "ungroup section failed", err)
		return
	}
	a.changed(r, sess, "section", content.Saved(id).Key(), "ungroup")
	w.WriteHeader(http.StatusNoContent)
}
