// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a creator account. Every block, section and profile is scoped
// to exactly one user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public-facing part of a creator page: identity fields
// plus the free-form customization used by the page theme.
type Profile struct {
	UserID        uuid.UUID     `json:"userId"`
	Username      string        `json:"username"`
	DisplayName   string        `json:"displayName"`
	Bio           string        `json:"bio"`
	AvatarURL     *string       `json:"avatarUrl,omitempty"`
	Customization Customization `json:"customization"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Customization holds theme settings as key/value pairs (background,
// font, button style, colors). Keys are opaque to the server.
type Customization map[string]string

// Get returns the value for a key, or the fallback if the key is unset.
func (c Customization) Get(key, fallback string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Merge returns a copy of c with every key of patch applied. An empty
// value in patch removes the key.
func (c Customization) Merge(patch Customization) Customization {
	out := make(Customization, len(c)+len(patch))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range patch {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
