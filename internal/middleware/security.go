// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// embedOrigins are the players public pages may frame for video and
// music blocks.
var embedOrigins = []string{
	"https://www.youtube-nocookie.com",
	"https://player.vimeo.com",
	"https://open.spotify.com",
	"https://w.soundcloud.com",
}

// contentSecurityPolicy covers the public pages: inline theme styles and
// the preview script, images from anywhere (avatars and image blocks are
// external URLs), and only the known players in frames. Only the editor
// on the same origin may frame us (the live preview is an iframe of
// /preview/{token}).
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"img-src * data:",
	"style-src 'self' 'unsafe-inline'",
	"script-src 'self' 'unsafe-inline'",
	"frame-src " + strings.Join(embedOrigins, " "),
	"frame-ancestors 'self'",
	"form-action 'self'",
	"base-uri 'none'",
}, "; ")

// SecureHeaders adds security-related HTTP headers to every response.
// hsts adds Strict-Transport-Security and should only be set when the
// public origin is served over HTTPS.
func SecureHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "interest-cohort=(), camera=(), microphone=(), geolocation=()")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
