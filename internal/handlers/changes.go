// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"linkdeck/internal/store"
)

// Changes returns the activity feed of the signed-in user, newest first:
// {"changes": [...]}. ?limit= defaults to 20.
func (a *API) Changes(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > store.MaxChanges {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(store.MaxChanges))
			return
		}
		limit = n
	}
	entries, err := a.changes.Recent(sess.UserID, limit)
	if err != nil {
		serverError(w, "list changes failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]store.Change{"changes": entries})
}
