// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"linkdeck/internal/models"
	"linkdeck/internal/slug"
	"linkdeck/internal/validate"
)

// GetProfile returns the signed-in user's profile.
func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	p, err := a.profileStore.FindByUserID(sess.UserID)
	if err != nil {
		serverError(w, "find profile failed", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile replaces the identity fields. The username is normalized
// and must not belong to another profile. Renaming also moves the cached
// page and the session's username.
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var in struct {
		Username    string  `json:"username"`
		DisplayName string  `json:"displayName"`
		Bio         string  `json:"bio"`
		AvatarURL   *string `json:"avatarUrl"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	username := slug.Username(in.Username)
	if msg := validate.Profile(username, in.Bio); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	owner, err := a.profileStore.FindByUsername(username)
	if err != nil {
		serverError(w, "find profile by username failed", err)
		return
	}
	if owner != nil && owner.UserID != sess.UserID {
		writeError(w, http.StatusConflict, "username is taken")
		return
	}

	if in.AvatarURL != nil && strings.TrimSpace(*in.AvatarURL) == "" {
		in.AvatarURL = nil
	}
	out, err := a.profileStore.Update(&models.Profile{
		UserID:      sess.UserID,
		Username:    username,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Bio:         in.Bio,
		AvatarURL:   in.AvatarURL,
	})
	if err != nil {
		storeError(w, "update profile failed", err)
		return
	}

	if out.Username != sess.Username {
		a.pageCache.Invalidate(r.Context(), sess.Username)
		sess.Username = out.Username
		if err := a.sessions.Update(r.Context(), r, sess); err != nil {
			slog.Warn("session username update failed", "error", err)
		}
	}
	a.changed(r, sess, "profile", out.Username, "update")
	writeJSON(w, http.StatusOK, out)
}

// UpdateCustomization merges theme settings into the profile. Empty values
// remove keys.
func (a *API) UpdateCustomization(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var patch models.Customization
	if !decodeJSON(w, r, &patch) {
		return
	}
	out, err := a.profileStore.UpdateCustomization(sess.UserID, patch)
	if err != nil {
		storeError(w, "update customization failed", err)
		return
	}
	a.changed(r, sess, "profile", out.Username, "customize")
	writeJSON(w, http.StatusOK, out)
}
