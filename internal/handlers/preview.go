// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
)

// PreviewToken returns the signed URL of the live preview frame:
// {"url": "https://host/preview/<token>"}.
func (a *API) PreviewToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	token, err := a.signer.Sign(sess.UserID, sess.Username)
	if err != nil {
		serverError(w, "sign preview token failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": a.baseURL + "/preview/" + token})
}

// PreviewEvents streams change events of the signed-in user.
func (a *API) PreviewEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	a.events.ServeSSE(w, r, sess.UserID)
}
