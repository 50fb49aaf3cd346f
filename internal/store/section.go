// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"linkdeck/internal/models"
)

// SectionStore handles section rows. Sections share the top-level order
// space with unsectioned blocks.
type SectionStore struct {
	db *sql.DB
}

// NewSectionStore creates a new SectionStore with the given database connection.
func NewSectionStore(db *sql.DB) *SectionStore {
	return &SectionStore{db: db}
}

const sectionColumns = `id, title, sort_order, active, archived, created_at, updated_at`

func scanSection(row interface{ Scan(...any) error }) (*models.Section, error) {
	sec := &models.Section{}
	if err := row.Scan(&sec.ID, &sec.Title, &sec.Order, &sec.Active, &sec.Archived, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
		return nil, err
	}
	return sec, nil
}

// List returns the non-archived sections of a user with their links
// attached.
func (s *SectionStore) List(userID uuid.UUID) ([]models.Section, error) {
	rows, err := s.db.Query(`
		SELECT `+sectionColumns+` FROM sections
		WHERE user_id = $1 AND NOT archived
		ORDER BY sort_order, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	index := map[int64]int{}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sec.Links = []models.Link{}
		index[sec.ID] = len(out)
		out = append(out, *sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := s.db.Query(`
		SELECT `+blockColumns+` FROM blocks
		WHERE user_id = $1 AND kind = 'link' AND section_id IS NOT NULL AND NOT archived
		ORDER BY sort_order, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list section links: %w", err)
	}
	recs, err := collectBlocks(links)
	if err != nil {
		return nil, fmt.Errorf("list section links: %w", err)
	}
	for _, rec := range recs {
		l := rec.(*models.Link)
		if i, ok := index[*l.SectionID]; ok {
			out[i].Links = append(out[i].Links, *l)
		}
	}
	return out, nil
}

// Find retrieves a section. Returns nil if not found.
func (s *SectionStore) Find(userID uuid.UUID, id int64) (*models.Section, error) {
	sec, err := scanSection(s.db.QueryRow(`
		SELECT `+sectionColumns+` FROM sections WHERE id = $1 AND user_id = $2
	`, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find section: %w", err)
	}
	return sec, nil
}

// Create inserts a section at the end of the top level.
func (s *SectionStore) Create(userID uuid.UUID, title string, active bool) (*models.Section, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create section begin: %w", err)
	}
	defer tx.Rollback()

	order, err := nextOrder(tx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	sec, err := scanSection(tx.QueryRow(`
		INSERT INTO sections (user_id, title, sort_order, active) VALUES ($1, $2, $3, $4)
		RETURNING `+sectionColumns, userID, title, order, active))
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create section commit: %w", err)
	}
	sec.Links = []models.Link{}
	return sec, nil
}

// Update saves the title and flags of a section.
func (s *SectionStore) Update(userID uuid.UUID, sec *models.Section) (*models.Section, error) {
	out, err := scanSection(s.db.QueryRow(`
		UPDATE sections SET title = $1, active = $2, archived = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING `+sectionColumns, sec.Title, sec.Active, sec.Archived, sec.ID, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update section: %w", err)
	}
	out.Links = []models.Link{}
	return out, nil
}

// Delete removes a section together with the content inside it.
func (s *SectionStore) Delete(userID uuid.UUID, id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete section begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM blocks WHERE section_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete section content: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM sections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete section commit: %w", err)
	}
	return nil
}

// Ungroup dissolves a section: its children move to the top level at the
// section's position, keeping their relative order, and the section is
// deleted. The top level is renumbered from zero.
func (s *SectionStore) Ungroup(userID uuid.UUID, id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ungroup begin: %w", err)
	}
	defer tx.Rollback()

	type entry struct {
		table string
		id    int64
	}

	var sectionOrder int
	err = tx.QueryRow(`SELECT sort_order FROM sections WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&sectionOrder)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ungroup: %w", err)
	}

	// Top level without the section, in display order.
	rows, err := tx.Query(`
		SELECT 'sections', id, sort_order, 0 FROM sections
		WHERE user_id = $1 AND NOT archived AND id <> $2
		UNION ALL
		SELECT 'blocks', id, sort_order, 1 FROM blocks
		WHERE user_id = $1 AND NOT archived AND section_id IS NULL
		ORDER BY 3, 4, 2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("ungroup list root: %w", err)
	}
	var before, after []entry
	for rows.Next() {
		var (
			e     entry
			order int
			rank  int
		)
		if err := rows.Scan(&e.table, &e.id, &order, &rank); err != nil {
			rows.Close()
			return fmt.Errorf("ungroup scan root: %w", err)
		}
		if order < sectionOrder || (order == sectionOrder && e.table == "sections") {
			before = append(before, e)
		} else {
			after = append(after, e)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ungroup list root: %w", err)
	}

	children, err := tx.Query(`
		SELECT id FROM blocks WHERE section_id = $1 AND user_id = $2 AND NOT archived
		ORDER BY sort_order, id
	`, id, userID)
	if err != nil {
		return fmt.Errorf("ungroup list children: %w", err)
	}
	var moved []entry
	for children.Next() {
		e := entry{table: "blocks"}
		if err := children.Scan(&e.id); err != nil {
			children.Close()
			return fmt.Errorf("ungroup scan child: %w", err)
		}
		moved = append(moved, e)
	}
	children.Close()
	if err := children.Err(); err != nil {
		return fmt.Errorf("ungroup list children: %w", err)
	}

	all := append(append(before, moved...), after...)
	for i, e := range all {
		q := `UPDATE sections SET sort_order = $1, updated_at = NOW() WHERE id = $2`
		if e.table == "blocks" {
			q = `UPDATE blocks SET sort_order = $1, section_id = NULL, updated_at = NOW() WHERE id = $2`
		}
		if _, err := tx.Exec(q, i, e.id); err != nil {
			return fmt.Errorf("ungroup renumber: %w", err)
		}
	}

	// Archived children fall back to the top level through ON DELETE SET NULL.
	if _, err := tx.Exec(`DELETE FROM sections WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("ungroup delete section: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ungroup commit: %w", err)
	}
	return nil
}
