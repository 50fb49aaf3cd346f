package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"linkdeck/internal/models"
	"linkdeck/internal/preview"
)

func TestAPIRequiresSession(t *testing.T) {
	api := NewAPI(nil, nil, nil, nil, nil, nil, nil, nil, "")
	rec := httptest.NewRecorder()
	api.List(models.KindLink)(rec, apiRequest(http.MethodGet, "/api/links", nil, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAPIRejectsBadInput(t *testing.T) {
	api := NewAPI(nil, nil, nil, nil, nil, nil, nil, nil, "")
	sess := newTestSessionData()

	tests := []struct {
		name string
		h    http.HandlerFunc
		req  *http.Request
		want int
	}{
		{"invalid json", api.Create(models.KindLink), apiRequest(http.MethodPost, "/api/links", "{", sess), http.StatusBadRequest},
		{"bad id", api.Delete(models.KindLink), apiRequest(http.MethodDelete, "/api/links/x", nil, sess, "id", "x"), http.StatusBadRequest},
		{"negative id", api.Update(models.KindText), apiRequest(http.MethodPut, "/api/texts/-1", "{}", sess, "id", "-1"), http.StatusBadRequest},
		{"invalid record", api.Create(models.KindLink), apiRequest(http.MethodPost, "/api/links", `{"title":"","url":"https://x.example"}`, sess), http.StatusBadRequest},
		{"invalid url", api.Create(models.KindLink), apiRequest(http.MethodPost, "/api/links", `{"title":"x","url":"notaurl"}`, sess), http.StatusBadRequest},
		{"empty section title", api.CreateSection, apiRequest(http.MethodPost, "/api/sections", `{"title":"  "}`, sess), http.StatusBadRequest},
		{"bad username", api.UpdateProfile, apiRequest(http.MethodPut, "/api/profile", `{"username":"!!!"}`, sess), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.h(rec, tt.req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var body map[string]string
			decode(t, rec, &body)
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestAPILinkLifecycle(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)

	// Create
	rec := httptest.NewRecorder()
	env.API.Create(models.KindLink)(rec, apiRequest(http.MethodPost, "/api/links",
		map[string]any{"title": "Site", "url": "https://site.example", "clicks": 50}, sess))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.Link
	decode(t, rec, &created)
	if created.ID == 0 || !created.Active || created.Clicks != 0 {
		t.Errorf("created: got id=%d active=%v clicks=%d", created.ID, created.Active, created.Clicks)
	}
	id := strconv.FormatInt(created.ID, 10)

	// List
	rec = httptest.NewRecorder()
	env.API.List(models.KindLink)(rec, apiRequest(http.MethodGet, "/api/links", nil, sess))
	var list map[string][]models.Link
	decode(t, rec, &list)
	if len(list["links"]) != 1 || list["links"][0].Title != "Site" {
		t.Errorf("list: got %+v", list)
	}

	// Partial update keeps the other fields
	rec = httptest.NewRecorder()
	env.API.Update(models.KindLink)(rec, apiRequest(http.MethodPut, "/api/links/"+id,
		map[string]any{"title": "Renamed", "badge": "new"}, sess, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Link
	decode(t, rec, &updated)
	if updated.Title != "Renamed" || updated.URL != "https://site.example" {
		t.Errorf("update: got title=%q url=%q", updated.Title, updated.URL)
	}
	if updated.Badge == nil || *updated.Badge != "new" {
		t.Errorf("update: badge not set")
	}

	// Update that fails validation
	rec = httptest.NewRecorder()
	env.API.Update(models.KindLink)(rec, apiRequest(http.MethodPut, "/api/links/"+id,
		map[string]any{"url": ""}, sess, "id", id))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid update: got %d, want 400", rec.Code)
	}

	// Another user cannot see or change it
	other := env.newTestUser(t)
	rec = httptest.NewRecorder()
	env.API.Update(models.KindLink)(rec, apiRequest(http.MethodPut, "/api/links/"+id,
		map[string]any{"title": "Stolen"}, other, "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign update: got %d, want 404", rec.Code)
	}

	// Delete, twice
	rec = httptest.NewRecorder()
	env.API.Delete(models.KindLink)(rec, apiRequest(http.MethodDelete, "/api/links/"+id, nil, sess, "id", id))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: got %d, want 204", rec.Code)
	}
	rec = httptest.NewRecorder()
	env.API.Delete(models.KindLink)(rec, apiRequest(http.MethodDelete, "/api/links/"+id, nil, sess, "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestAPICreateInUnknownSection(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)

	rec := httptest.NewRecorder()
	env.API.Create(models.KindLink)(rec, apiRequest(http.MethodPost, "/api/links",
		map[string]any{"title": "x", "url": "https://x.example", "sectionId": 999999999}, sess))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestAPISectionsReorderUngroup(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)

	rec := httptest.NewRecorder()
	env.API.CreateSection(rec, apiRequest(http.MethodPost, "/api/sections", map[string]any{"title": "Music"}, sess))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create section: got %d, body %s", rec.Code, rec.Body.String())
	}
	var sec models.Section
	decode(t, rec, &sec)
	if !sec.Active {
		t.Error("new section should be active by default")
	}

	link, err := env.Blocks.Create(sess.UserID, &models.Link{Block: models.Block{Active: true}, Title: "L", URL: "https://l.example"})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	// Reorder: section first, link inside it.
	body := map[string]any{"items": []map[string]any{
		{"kind": "section", "id": sec.ID, "sectionId": nil},
		{"kind": "link", "id": link.Placement().ID, "sectionId": sec.ID},
	}}
	rec = httptest.NewRecorder()
	env.API.Reorder(rec, apiRequest(http.MethodPut, "/api/links/reorder", body, sess))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reorder: got %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := env.Blocks.Find(sess.UserID, models.KindLink, link.Placement().ID)
	if sid := got.Placement().SectionID; sid == nil || *sid != sec.ID {
		t.Fatalf("link should be inside the section, got %v", sid)
	}

	// Nested sections are rejected.
	bad := map[string]any{"items": []map[string]any{{"kind": "section", "id": sec.ID, "sectionId": sec.ID}}}
	rec = httptest.NewRecorder()
	env.API.Reorder(rec, apiRequest(http.MethodPut, "/api/links/reorder", bad, sess))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("nested reorder: got %d, want 400", rec.Code)
	}

	// Rename through a partial update.
	sid := strconv.FormatInt(sec.ID, 10)
	rec = httptest.NewRecorder()
	env.API.UpdateSection(rec, apiRequest(http.MethodPut, "/api/sections/"+sid, map[string]any{"title": "Sounds"}, sess, "id", sid))
	var renamed models.Section
	decode(t, rec, &renamed)
	if renamed.Title != "Sounds" || !renamed.Active {
		t.Errorf("rename: got %+v", renamed)
	}

	// Ungroup keeps the link at the top level.
	rec = httptest.NewRecorder()
	env.API.Ungroup(rec, apiRequest(http.MethodPost, "/api/sections/"+sid+"/ungroup", nil, sess, "id", sid))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ungroup: got %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ = env.Blocks.Find(sess.UserID, models.KindLink, link.Placement().ID)
	if got == nil || got.Placement().SectionID != nil {
		t.Errorf("link should be at the top level after ungroup, got %+v", got)
	}

	rec = httptest.NewRecorder()
	env.API.ListSections(rec, apiRequest(http.MethodGet, "/api/sections", nil, sess))
	var secs map[string][]models.Section
	decode(t, rec, &secs)
	if len(secs["sections"]) != 0 {
		t.Errorf("sections after ungroup: got %d, want 0", len(secs["sections"]))
	}
}

func TestAPIMutationInvalidatesAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)
	ctx := context.Background()

	env.PageCache.Set(ctx, sess.Username, []byte("<html>stale</html>"))
	ch, cancel := env.Events.Subscribe(sess.UserID)
	defer cancel()

	rec := httptest.NewRecorder()
	env.API.Create(models.KindText)(rec, apiRequest(http.MethodPost, "/api/texts",
		map[string]any{"title": "Hello", "description": "**hi**", "position": "left"}, sess))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}

	if _, ok := env.PageCache.Get(ctx, sess.Username); ok {
		t.Error("page cache should be invalidated after a mutation")
	}
	select {
	case msg := <-ch:
		var ev preview.Event
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != preview.ContentChanged {
			t.Errorf("event: got %s", msg)
		}
	case <-time.After(time.Second):
		t.Error("no preview event published")
	}
}

func TestAPIProfile(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)
	other := env.newTestUser(t)

	rec := httptest.NewRecorder()
	env.API.UpdateProfile(rec, apiRequest(http.MethodPut, "/api/profile",
		map[string]any{"username": other.Username, "bio": "x"}, sess))
	if rec.Code != http.StatusConflict {
		t.Errorf("taken username: got %d, want 409", rec.Code)
	}

	wanted := "  New " + sess.Username[2:] + " "
	rec = httptest.NewRecorder()
	env.API.UpdateProfile(rec, apiRequest(http.MethodPut, "/api/profile",
		map[string]any{"username": wanted, "displayName": "New Name", "bio": "Hi"}, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: got %d, body %s", rec.Code, rec.Body.String())
	}
	var p models.Profile
	decode(t, rec, &p)
	if p.Username != "new-"+sess.Username[2:] {
		t.Errorf("username: got %q", p.Username)
	}
	if sess.Username != p.Username {
		t.Errorf("session username should follow the rename, got %q", sess.Username)
	}

	rec = httptest.NewRecorder()
	env.API.UpdateCustomization(rec, apiRequest(http.MethodPut, "/api/profile/customization",
		map[string]string{"theme": "minimal", "font": "serif"}, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("customization: got %d, body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &p)
	if p.Customization.Get("theme", "") != "minimal" {
		t.Errorf("customization: got %v", p.Customization)
	}

	rec = httptest.NewRecorder()
	env.API.GetProfile(rec, apiRequest(http.MethodGet, "/api/profile", nil, sess))
	decode(t, rec, &p)
	if p.DisplayName != "New Name" || p.Customization.Get("font", "") != "serif" {
		t.Errorf("get profile: got %+v", p)
	}
}

func TestAPIPreviewToken(t *testing.T) {
	signer := preview.NewSigner("k", time.Minute)
	api := NewAPI(nil, nil, nil, nil, nil, nil, nil, signer, "https://linkdeck.test")
	sess := newTestSessionData()

	rec := httptest.NewRecorder()
	api.PreviewToken(rec, apiRequest(http.MethodGet, "/api/preview/token", nil, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var out map[string]string
	decode(t, rec, &out)

	const prefix = "https://linkdeck.test/preview/"
	if len(out["url"]) <= len(prefix) || out["url"][:len(prefix)] != prefix {
		t.Fatalf("url: got %q", out["url"])
	}
	id, claims, err := signer.Parse(out["url"][len(prefix):])
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if id != sess.UserID || claims.Username != sess.Username {
		t.Errorf("token: got %v %q", id, claims.Username)
	}
}

func TestAPIChanges(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newTestUser(t)

	rec := httptest.NewRecorder()
	env.API.CreateSection(rec, apiRequest(http.MethodPost, "/api/sections", map[string]any{"title": "Shows"}, sess))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create section: got %d", rec.Code)
	}
	var sec models.Section
	decode(t, rec, &sec)

	sid := strconv.FormatInt(sec.ID, 10)
	rec = httptest.NewRecorder()
	env.API.DeleteSection(rec, apiRequest(http.MethodDelete, "/api/sections/"+sid, nil, sess, "id", sid))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete section: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.API.Changes(rec, apiRequest(http.MethodGet, "/api/changes?limit=5", nil, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("changes: got %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Changes []struct {
			EntityID string `json:"entityId"`
			Action   string `json:"action"`
		} `json:"changes"`
	}
	decode(t, rec, &out)
	if len(out.Changes) != 2 {
		t.Fatalf("changes: got %d entries, want 2", len(out.Changes))
	}
	key := "section-" + sid
	if out.Changes[0].Action != "delete" || out.Changes[0].EntityID != key {
		t.Errorf("newest: got %+v", out.Changes[0])
	}
	if out.Changes[1].Action != "create" {
		t.Errorf("oldest: got %+v", out.Changes[1])
	}

	rec = httptest.NewRecorder()
	env.API.Changes(rec, apiRequest(http.MethodGet, "/api/changes?limit=0", nil, sess))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0: got %d, want 400", rec.Code)
	}
}
