// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MaxChanges caps how many entries Recent returns.
const MaxChanges = 100

// Change is one entry of a creator's activity feed.
type Change struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChangeLogStore records what a creator changed and when. Every entry
// matches one invalidation of the creator's cached page.
type ChangeLogStore struct {
	db *sql.DB
}

// NewChangeLogStore creates a new ChangeLogStore.
func NewChangeLogStore(db *sql.DB) *ChangeLogStore {
	return &ChangeLogStore{db: db}
}

// Log appends an entry. The entity id is free-form so it can hold an item
// key ("link-7") or a username. Failures are logged and swallowed.
func (s *ChangeLogStore) Log(userID uuid.UUID, entityType, entityID, action string) {
	_, err := s.db.Exec(`
		INSERT INTO change_log (user_id, entity_type, entity_id, action)
		VALUES ($1, $2, $3, $4)
	`, userID, entityType, entityID, action)
	if err != nil {
		slog.Warn("failed to log change",
			"user_id", userID,
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("change logged", "user_id", userID, "entity_id", entityID, "action", action)
}

// Recent returns the newest entries of one creator, newest first. limit is
// clamped to 1..MaxChanges.
func (s *ChangeLogStore) Recent(userID uuid.UUID, limit int) ([]Change, error) {
	if limit < 1 || limit > MaxChanges {
		limit = MaxChanges
	}
	rows, err := s.db.Query(`
		SELECT id, entity_type, entity_id, action, created_at
		FROM change_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	entries := []Change{}
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.EntityType, &c.EntityID, &c.Action, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}
