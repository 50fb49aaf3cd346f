// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/subtle"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linkdeck/internal/cache"
	"linkdeck/internal/content"
	"linkdeck/internal/engine"
	"linkdeck/internal/models"
	"linkdeck/internal/preview"
	"linkdeck/internal/store"
)

// Public groups handlers for the public profile pages. It checks the L2
// Valkey page cache before invoking the engine, and stores rendered
// results on miss. Preview pages are never cached.
type Public struct {
	engine       *engine.Engine
	blockStore   *store.BlockStore
	sectionStore *store.SectionStore
	profileStore *store.ProfileStore
	pageCache    *cache.PageCache
	changes      *store.ChangeLogStore
	events       *preview.EventBus
	signer       *preview.Signer
}

// NewPublic creates a new Public handler group.
func NewPublic(eng *engine.Engine, blockStore *store.BlockStore, sectionStore *store.SectionStore, profileStore *store.ProfileStore, pageCache *cache.PageCache, changes *store.ChangeLogStore, events *preview.EventBus, signer *preview.Signer) *Public {
	return &Public{
		engine:       eng,
		blockStore:   blockStore,
		sectionStore: sectionStore,
		profileStore: profileStore,
		pageCache:    pageCache,
		changes:      changes,
		events:       events,
		signer:       signer,
	}
}

// Profile renders the public page of a username.
func (p *Public) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.ToLower(chi.URLParam(r, "username"))

	if cached, ok := p.pageCache.Get(ctx, username); ok {
		writeHTML(w, http.StatusOK, cached)
		return
	}

	profile, err := p.profileStore.FindByUsername(username)
	if err != nil {
		slog.Error("find profile failed", "error", err, "username", username)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.NotFound(w, r)
		return
	}

	page, err := p.render(profile, engine.Options{})
	if err != nil {
		slog.Error("render profile failed", "error", err, "username", username)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, username, page)
	writeHTML(w, http.StatusOK, page)
}

// Preview renders the live preview frame for a signed preview token.
func (p *Public) Preview(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	userID, _, err := p.signer.Parse(token)
	if err != nil {
		http.Error(w, "Preview link expired", http.StatusUnauthorized)
		return
	}

	profile, err := p.profileStore.FindByUserID(userID)
	if err != nil {
		slog.Error("find preview profile failed", "error", err, "user_id", userID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.NotFound(w, r)
		return
	}

	page, err := p.render(profile, engine.Options{
		Preview:   true,
		EventsURL: "/preview/" + token + "/events",
	})
	if err != nil {
		slog.Error("render preview failed", "error", err, "user_id", userID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, http.StatusOK, page)
}

// PreviewEvents streams change events to a preview frame.
func (p *Public) PreviewEvents(w http.ResponseWriter, r *http.Request) {
	userID, _, err := p.signer.Parse(chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, "Preview link expired", http.StatusUnauthorized)
		return
	}
	p.events.ServeSSE(w, r, userID)
}

// timeNow is replaced in tests.
var timeNow = time.Now

var passwordPage = template.Must(template.New("password").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex"><title>{{.Title}}</title></head>
<body style="font-family: system-ui, sans-serif; display: flex; justify-content: center; padding-top: 15vh;">
<form method="post" style="display: grid; gap: .75rem; width: 18rem;">
<h1 style="font-size: 1.1rem; margin: 0;">{{.Title}}</h1>
<p style="margin: 0; color: #52525b;">This link is protected.</p>
{{if .Wrong}}<p style="margin: 0; color: #b91c1c;">Wrong password.</p>{{end}}
<input type="password" name="password" placeholder="Password" autofocus required>
<button type="submit">Continue</button>
</form></body></html>`))

// Go counts a click on a link and redirects to its target. Links with a
// password ask for it first; links outside their schedule are not found.
func (p *Public) Go(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	link, owner, err := p.blockStore.FindLink(id)
	if err != nil {
		slog.Error("find link failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if link == nil || !link.Visible(timeNow()) {
		http.NotFound(w, r)
		return
	}

	if link.Password != nil && *link.Password != "" {
		given := r.PostFormValue("password")
		if r.Method != http.MethodPost || subtle.ConstantTimeCompare([]byte(given), []byte(*link.Password)) != 1 {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusUnauthorized)
			_ = passwordPage.Execute(w, map[string]any{"Title": link.Title, "Wrong": r.Method == http.MethodPost})
			return
		}
	}

	clicked, err := p.blockStore.RecordClick(id)
	if err != nil {
		slog.Error("record click failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if clicked == nil {
		http.NotFound(w, r)
		return
	}
	if clicked.Archived {
		p.archivedByClicks(r, owner, clicked)
	}
	http.Redirect(w, r, clicked.URL, http.StatusFound)
}

// archivedByClicks handles a link that reached its click limit: the
// owner's page no longer shows it and the editor hears about it.
func (p *Public) archivedByClicks(r *http.Request, owner uuid.UUID, link *models.Link) {
	key := content.RecordKey(link.Kind(), link.ID)
	p.changes.Log(owner, "link", key, "archive")
	p.events.Publish(owner, preview.Event{Type: preview.ContentChanged, Key: key})

	profile, err := p.profileStore.FindByUserID(owner)
	if err != nil || profile == nil {
		slog.Warn("owner lookup for invalidation failed", "error", err, "user_id", owner)
		return
	}
	p.pageCache.Invalidate(r.Context(), profile.Username)
}

// render loads the content of a profile and renders its page.
func (p *Public) render(profile *models.Profile, opts engine.Options) ([]byte, error) {
	recs, err := p.blockStore.ListAll(profile.UserID)
	if err != nil {
		return nil, err
	}
	secs, err := p.sectionStore.List(profile.UserID)
	if err != nil {
		return nil, err
	}
	return p.engine.Render(profile, content.Build(content.NewSnapshot(recs, secs)), opts)
}

func writeHTML(w http.ResponseWriter, status int, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(page)
}
