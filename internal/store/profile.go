// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"linkdeck/internal/models"
)

// ProfileStore reads and writes the public profile of a creator.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `user_id, username, display_name, bio, avatar_url, customization, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	p := &models.Profile{}
	var custom []byte
	if err := row.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &custom, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Customization = models.Customization{}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &p.Customization); err != nil {
			return nil, fmt.Errorf("decode customization: %w", err)
		}
	}
	return p, nil
}

// FindByUserID returns the profile of a user. Returns nil if not found.
func (s *ProfileStore) FindByUserID(userID uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by user: %w", err)
	}
	return p, nil
}

// FindByUsername returns the profile published under a username. Returns
// nil if not found.
func (s *ProfileStore) FindByUsername(username string) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by username: %w", err)
	}
	return p, nil
}

// Update saves the identity fields of a profile. Customization is left
// untouched, see UpdateCustomization.
func (s *ProfileStore) Update(p *models.Profile) (*models.Profile, error) {
	out, err := scanProfile(s.db.QueryRow(`
		UPDATE profiles SET username = $1, display_name = $2, bio = $3, avatar_url = $4, updated_at = NOW()
		WHERE user_id = $5
		RETURNING `+profileColumns,
		p.Username, p.DisplayName, p.Bio, p.AvatarURL, p.UserID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return out, nil
}

// UpdateCustomization merges patch into the stored customization. Empty
// values remove keys.
func (s *ProfileStore) UpdateCustomization(userID uuid.UUID, patch models.Customization) (*models.Profile, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update customization begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := scanProfile(tx.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 FOR UPDATE`, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load customization: %w", err)
	}

	merged, err := json.Marshal(cur.Customization.Merge(patch))
	if err != nil {
		return nil, fmt.Errorf("encode customization: %w", err)
	}
	out, err := scanProfile(tx.QueryRow(`
		UPDATE profiles SET customization = $1, updated_at = NOW() WHERE user_id = $2
		RETURNING `+profileColumns, string(merged), userID))
	if err != nil {
		return nil, fmt.Errorf("update customization: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update customization commit: %w", err)
	}
	return out, nil
}
