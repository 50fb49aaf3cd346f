// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"linkdeck/internal/handlers"
	"linkdeck/internal/middleware"
	"linkdeck/internal/session"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestHealthHandlerMethods(t *testing.T) {
	// Health endpoint only accepts GET.
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health: got %d, want 200", w.Code)
	}
}

// newTestRouter builds the router with handler groups that have no
// backing stores. Only routes rejected by middleware can be exercised.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	vk := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { vk.Close() })
	limits := Limits{
		Login:  middleware.NewRateLimiter(10, time.Minute),
		Unlock: middleware.NewRateLimiter(10, time.Minute),
	}
	t.Cleanup(limits.Login.Stop)
	t.Cleanup(limits.Unlock.Stop)

	sessions := session.NewStore(vk, false)
	api := handlers.NewAPI(sessions, nil, nil, nil, nil, nil, nil, nil, "http://localhost")
	auth := handlers.NewAuth(sessions, nil, nil)
	public := handlers.NewPublic(nil, nil, nil, nil, nil, nil, nil, nil)
	return New(sessions, false, limits, api, auth, public)
}

func TestRouterHealth(t *testing.T) {
	h := newTestRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-Frame-Options"); got == "" {
		t.Error("security headers should be applied globally")
	}
}

func TestRouterAPIRequiresSession(t *testing.T) {
	h := newTestRouter(t)

	paths := []string{"/api/links", "/api/texts", "/api/events", "/api/sections", "/api/profile", "/api/preview/token", "/api/changes", "/api/session"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestRouterAPISetsCSRFCookie(t *testing.T) {
	h := newTestRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CSRFCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("GET /api/session should issue the CSRF cookie")
	}
}

func TestRouterAPIRejectsMissingCSRF(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/login"},
		{http.MethodPost, "/api/links"},
		{http.MethodPut, "/api/links/reorder"},
		{http.MethodDelete, "/api/sections/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))
			if w.Code != http.StatusForbidden {
				t.Errorf("status: got %d, want 403", w.Code)
			}
		})
	}
}
