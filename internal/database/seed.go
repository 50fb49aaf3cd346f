package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a demo user with a profile, one section and a few links if no
// user exists yet.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3) RETURNING id
	`, "demo@linkdeck.local", string(hash), "Demo").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO profiles (user_id, username, display_name, bio)
		VALUES ($1, $2, $3, $4)
	`, userID, "demo", "Demo", "Everything I make, in one place."); err != nil {
		return fmt.Errorf("seed insert profile: %w", err)
	}

	var sectionID int64
	if err := tx.QueryRow(`
		INSERT INTO sections (user_id, title, sort_order) VALUES ($1, $2, $3) RETURNING id
	`, userID, "Projects", 1).Scan(&sectionID); err != nil {
		return fmt.Errorf("seed insert section: %w", err)
	}

	links := []struct {
		title, url string
		order      int
		section    *int64
	}{
		{"Website", "https://example.com", 0, nil},
		{"Newsletter", "https://example.com/newsletter", 2, nil},
		{"Side project", "https://example.com/project", 0, &sectionID},
	}
	for _, l := range links {
		data, err := json.Marshal(map[string]any{"title": l.title, "url": l.url, "clicks": 0, "sensitive": false})
		if err != nil {
			return fmt.Errorf("seed marshal link: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO blocks (user_id, kind, sort_order, section_id, data)
			VALUES ($1, 'link', $2, $3, $4)
		`, userID, l.order, l.section, data); err != nil {
			return fmt.Errorf("seed insert link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user",
		"email", "demo@linkdeck.local",
		"password", "demo",
	)

	return nil
}
