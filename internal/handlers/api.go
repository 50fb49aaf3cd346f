// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the linkdeck server.
// Handlers are grouped by concern (editor API, auth, public pages) and
// receive their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"linkdeck/internal/cache"
	"linkdeck/internal/middleware"
	"linkdeck/internal/preview"
	"linkdeck/internal/session"
	"linkdeck/internal/store"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

// API groups the JSON endpoints used by the editor. Every route is scoped
// to the signed-in user.
type API struct {
	sessions     *session.Store
	blockStore   *store.BlockStore
	sectionStore *store.SectionStore
	profileStore *store.ProfileStore
	pageCache    *cache.PageCache
	changes      *store.ChangeLogStore
	events       *preview.EventBus
	signer       *preview.Signer
	baseURL      string
}

// NewAPI creates the editor API handler group. baseURL is the public
// origin used to build preview links.
func NewAPI(sessions *session.Store, blockStore *store.BlockStore, sectionStore *store.SectionStore, profileStore *store.ProfileStore, pageCache *cache.PageCache, changes *store.ChangeLogStore, events *preview.EventBus, signer *preview.Signer, baseURL string) *API {
	return &API{
		sessions:     sessions,
		blockStore:   blockStore,
		sectionStore: sectionStore,
		profileStore: profileStore,
		pageCache:    pageCache,
		changes:      changes,
		events:       events,
		signer:       signer,
		baseURL:      baseURL,
	}
}

// changed runs after every successful mutation: the cached public page is
// dropped, the change joins the activity feed and open preview frames are
// told to reload.
func (a *API) changed(r *http.Request, sess *session.Data, entityType, entityID, action string) {
	a.pageCache.Invalidate(r.Context(), sess.Username)
	a.changes.Log(sess.UserID, entityType, entityID, action)

	ev := preview.Event{Type: preview.ContentChanged, Key: entityID}
	if entityType == "profile" {
		ev = preview.Event{Type: preview.ProfileChanged}
	}
	a.events.Publish(sess.UserID, ev)
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeError sends {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers with a generic 500.
func serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// storeError maps store sentinel errors to client errors and everything
// else to a 500.
func storeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidPlacement):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		serverError(w, msg, err)
	}
}

// decodeJSON reads a bounded JSON body into v. It writes a 400 and
// returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return false
	}
	if len(body) > maxBody {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// idParam parses the {id} route parameter. It writes a 400 and returns
// false when the value is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// mustSession returns the session stored by the auth middleware. Routes
// using it sit behind RequireAuth, so a missing session is a 401.
func mustSession(w http.ResponseWriter, r *http.Request) (*session.Data, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return sess, true
}
