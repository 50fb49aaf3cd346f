// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package client is the HTTP implementation of editor.Remote. It talks to
// the linkdeck JSON API with a cookie-based session and sends the CSRF
// token the server hands out on every state-changing request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"linkdeck/internal/content"
	"linkdeck/internal/editor"
	"linkdeck/internal/models"
)

const (
	csrfCookie = "ld_csrf"
	csrfHeader = "X-CSRF-Token"
)

var _ editor.Remote = (*Client)(nil)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Account is the signed-in creator as reported by the server.
type Account struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
}

// Client calls the API at a base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for the server at baseURL. A nil hc selects a
// client with a 30 second timeout. The client gets its own cookie jar
// when hc has none.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client base url %q: scheme and host required", baseURL)
	}

	c := &http.Client{Timeout: 30 * time.Second}
	if hc != nil {
		cp := *hc
		c = &cp
	}
	if c.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client cookie jar: %w", err)
		}
		c.Jar = jar
	}
	return &Client{base: u, http: c}, nil
}

// Login starts a session for the given credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	var acc Account
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", in, &acc); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &acc, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Session returns the signed-in account.
func (c *Client) Session(ctx context.Context) (*Account, error) {
	var acc Account
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &acc); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return &acc, nil
}

// PreviewURL returns the signed URL of the live preview frame.
func (c *Client) PreviewURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/preview/token", nil, &out); err != nil {
		return "", fmt.Errorf("preview token: %w", err)
	}
	return out.URL, nil
}

// List returns every record of one kind, archived ones included.
func (c *Client) List(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	var out map[string][]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/"+kind.Collection(), nil, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Collection(), err)
	}
	recs := make([]models.Record, 0, len(out[kind.Collection()]))
	for _, raw := range out[kind.Collection()] {
		rec, err := decodeRecord(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind.Collection(), err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Sections returns every section with its legacy link list.
func (c *Client) Sections(ctx context.Context) ([]models.Section, error) {
	var out struct {
		Sections []models.Section `json:"sections"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sections", nil, &out); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return out.Sections, nil
}

// Profile returns the creator's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Create stores a new record and returns it as saved.
func (c *Client) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/"+rec.Kind().Collection(), rec, &raw); err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Kind(), err)
	}
	return decodeRecord(rec.Kind(), raw)
}

// Update sends a partial update and returns the stored record.
func (c *Client) Update(ctx context.Context, kind models.Kind, id int64, patch map[string]any) (models.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, itemPath(kind, id), patch, &raw); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	return decodeRecord(kind, raw)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if err := c.do(ctx, http.MethodDelete, itemPath(kind, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

// Reorder persists the complete ordering of sections and content.
func (c *Client) Reorder(ctx context.Context, placements []content.Placement) error {
	in := map[string][]content.Placement{"items": placements}
	if err := c.do(ctx, http.MethodPut, "/api/links/reorder", in, nil); err != nil {
		return fmt.Errorf("reorder: %w", err)
	}
	return nil
}

// CreateSection stores a new, active section.
func (c *Client) CreateSection(ctx context.Context, title string) (*models.Section, error) {
	var sec models.Section
	in := map[string]any{"title": title, "active": true}
	if err := c.do(ctx, http.MethodPost, "/api/sections", in, &sec); err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return &sec, nil
}

// UpdateSection sends a partial update of a section.
func (c *Client) UpdateSection(ctx context.Context, id int64, patch map[string]any) (*models.Section, error) {
	var sec models.Section
	if err := c.do(ctx, http.MethodPut, sectionPath(id), patch, &sec); err != nil {
		return nil, fmt.Errorf("update section %d: %w", id, err)
	}
	return &sec, nil
}

// DeleteSection removes a section and the content inside it.
func (c *Client) DeleteSection(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, sectionPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete section %d: %w", id, err)
	}
	return nil
}

// Ungroup removes a section and keeps its content at the top level.
func (c *Client) Ungroup(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodPost, sectionPath(id)+"/ungroup", nil, nil); err != nil {
		return fmt.Errorf("ungroup section %d: %w", id, err)
	}
	return nil
}

// UpdateProfile replaces the profile identity fields.
func (c *Client) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile", p, &out); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &out, nil
}

// UpdateCustomization merges theme settings into the profile.
func (c *Client) UpdateCustomization(ctx context.Context, patch models.Customization) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile/customization", patch, &out); err != nil {
		return nil, fmt.Errorf("update customization: %w", err)
	}
	return &out, nil
}

// do performs one API call. in is sent as JSON when non-nil and the
// response body is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		token, err := c.csrfToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(csrfHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// csrfToken returns the token cookie, fetching one first when the jar
// has none. Any /api response carries the cookie, even a 401.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if token := c.cookie(csrfCookie); token != "" {
		return token, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/api/session", nil)
	if err != nil {
		return "", fmt.Errorf("csrf request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("csrf http: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token := c.cookie(csrfCookie)
	if token == "" {
		return "", fmt.Errorf("csrf: server set no %s cookie", csrfCookie)
	}
	return token, nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func apiError(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(body))
	}
	if e.Error == "" {
		e.Error = http.StatusText(status)
	}
	return &APIError{Status: status, Message: e.Error}
}

func decodeRecord(kind models.Kind, raw json.RawMessage) (models.Record, error) {
	rec := models.NewRecord(kind)
	if rec == nil {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return rec, nil
}

func itemPath(kind models.Kind, id int64) string {
	return "/api/" + kind.Collection() + "/" + strconv.FormatInt(id, 10)
}

func sectionPath(id int64) string {
	return "/api/sections/" + strconv.FormatInt(id, 10)
}
