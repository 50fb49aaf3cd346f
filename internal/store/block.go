// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"linkdeck/internal/content"
	"linkdeck/internal/models"
)

// ErrInvalidPlacement is returned by Reorder when the payload names an
// unknown kind, a duplicate entry, or nests a section.
var ErrInvalidPlacement = errors.New("invalid placement")

// BlockStore handles the six content kinds, which share the blocks table.
// Placement fields live in columns; the kind-specific fields are stored in
// the data column as JSON.
type BlockStore struct {
	db *sql.DB
}

// NewBlockStore creates a new BlockStore with the given database connection.
func NewBlockStore(db *sql.DB) *BlockStore {
	return &BlockStore{db: db}
}

const blockColumns = `id, kind, sort_order, active, archived, section_id, data, created_at, updated_at`

// placementKeys are the JSON keys of models.Block. They are stripped from
// the data column since the columns are authoritative.
var placementKeys = []string{"id", "order", "active", "archived", "sectionId", "createdAt", "updatedAt"}

func scanBlock(row interface{ Scan(...any) error }) (models.Record, error) {
	var (
		b    models.Block
		kind string
		data []byte
	)
	if err := row.Scan(&b.ID, &kind, &b.Order, &b.Active, &b.Archived, &b.SectionID, &data, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	rec := models.NewRecord(models.Kind(kind))
	if rec == nil {
		return nil, fmt.Errorf("unknown block kind %q", kind)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", kind, b.ID, err)
	}
	*rec.Placement() = b
	return rec, nil
}

// encodeData returns the kind-specific JSON of a record.
func encodeData(rec models.Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", rec.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("encode %s: %w", rec.Kind(), err)
	}
	for _, k := range placementKeys {
		delete(fields, k)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", rec.Kind(), err)
	}
	return string(out), nil
}

func collectBlocks(rows *sql.Rows) ([]models.Record, error) {
	defer rows.Close()
	var out []models.Record
	for rows.Next() {
		rec, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// List returns the records of one kind for a user, ordered by position.
// Archived records are only included when includeArchived is set.
func (s *BlockStore) List(userID uuid.UUID, kind models.Kind, includeArchived bool) ([]models.Record, error) {
	rows, err := s.db.Query(`
		SELECT `+blockColumns+`
		FROM blocks
		WHERE user_id = $1 AND kind = $2 AND ($3 OR NOT archived)
		ORDER BY sort_order, id
	`, userID, kind, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Collection(), err)
	}
	return collectBlocks(rows)
}

// ListAll returns every non-archived record of a user, all kinds.
func (s *BlockStore) ListAll(userID uuid.UUID) ([]models.Record, error) {
	rows, err := s.db.Query(`
		SELECT `+blockColumns+`
		FROM blocks
		WHERE user_id = $1 AND NOT archived
		ORDER BY sort_order, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return collectBlocks(rows)
}

// Find retrieves one record. Returns nil if not found or owned by another
// user.
func (s *BlockStore) Find(userID uuid.UUID, kind models.Kind, id int64) (models.Record, error) {
	rec, err := scanBlock(s.db.QueryRow(`
		SELECT `+blockColumns+` FROM blocks WHERE id = $1 AND user_id = $2 AND kind = $3
	`, id, userID, kind))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return rec, nil
}

// Create inserts a record at the end of its container (the top level, or
// its section) and returns it with the generated id.
func (s *BlockStore) Create(userID uuid.UUID, rec models.Record) (models.Record, error) {
	data, err := encodeData(rec)
	if err != nil {
		return nil, err
	}
	b := rec.Placement()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create %s begin: %w", rec.Kind(), err)
	}
	defer tx.Rollback()

	if err := checkSection(tx, userID, b.SectionID); err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Kind(), err)
	}
	order, err := nextOrder(tx, userID, b.SectionID)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Kind(), err)
	}

	out, err := scanBlock(tx.QueryRow(`
		INSERT INTO blocks (user_id, kind, sort_order, active, section_id, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+blockColumns,
		userID, rec.Kind(), order, b.Active, b.SectionID, data))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Kind(), err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create %s commit: %w", rec.Kind(), err)
	}
	return out, nil
}

// Update saves a record. Moving a record to another section through an
// update appends it to that section; order is otherwise only changed by
// Reorder.
func (s *BlockStore) Update(userID uuid.UUID, rec models.Record) (models.Record, error) {
	data, err := encodeData(rec)
	if err != nil {
		return nil, err
	}
	b := rec.Placement()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update %s begin: %w", rec.Kind(), err)
	}
	defer tx.Rollback()

	var (
		order      int
		curSection *int64
	)
	err = tx.QueryRow(`
		SELECT sort_order, section_id FROM blocks WHERE id = $1 AND user_id = $2 AND kind = $3 FOR UPDATE
	`, b.ID, userID, rec.Kind()).Scan(&order, &curSection)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", rec.Kind(), err)
	}
	if !sameSection(curSection, b.SectionID) {
		if err := checkSection(tx, userID, b.SectionID); err != nil {
			return nil, fmt.Errorf("update %s: %w", rec.Kind(), err)
		}
		if order, err = nextOrder(tx, userID, b.SectionID); err != nil {
			return nil, fmt.Errorf("update %s: %w", rec.Kind(), err)
		}
	}

	out, err := scanBlock(tx.QueryRow(`
		UPDATE blocks SET sort_order = $1, active = $2, archived = $3, section_id = $4, data = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING `+blockColumns,
		order, b.Active, b.Archived, b.SectionID, data, b.ID, userID))
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", rec.Kind(), err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update %s commit: %w", rec.Kind(), err)
	}
	return out, nil
}

// Delete removes a record.
func (s *BlockStore) Delete(userID uuid.UUID, kind models.Kind, id int64) error {
	res, err := s.db.Exec(`DELETE FROM blocks WHERE id = $1 AND user_id = $2 AND kind = $3`, id, userID, kind)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder applies a full placement list in one transaction. The position
// of an entry among the entries of the same container becomes its order.
// Every entry must belong to the user.
func (s *BlockStore) Reorder(userID uuid.UUID, placements []content.Placement) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reorder begin: %w", err)
	}
	defer tx.Rollback()

	owned, err := sectionIDs(tx, userID)
	if err != nil {
		return fmt.Errorf("reorder: %w", err)
	}

	seen := make(map[string]bool, len(placements))
	next := map[int64]int{}
	rootNext := 0
	for _, p := range placements {
		key := fmt.Sprintf("%s-%d", p.Kind, p.ID)
		if seen[key] {
			return fmt.Errorf("reorder %s: duplicate: %w", key, ErrInvalidPlacement)
		}
		seen[key] = true

		var res sql.Result
		switch {
		case p.Kind == content.KindSection:
			if p.SectionID != nil {
				return fmt.Errorf("reorder %s: sections do not nest: %w", key, ErrInvalidPlacement)
			}
			res, err = tx.Exec(`
				UPDATE sections SET sort_order = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3
			`, rootNext, p.ID, userID)
			rootNext++
		case models.Kind(p.Kind).Valid():
			var order int
			if p.SectionID == nil {
				order = rootNext
				rootNext++
			} else {
				if !owned[*p.SectionID] {
					return fmt.Errorf("reorder %s: section %d: %w", key, *p.SectionID, ErrNotFound)
				}
				order = next[*p.SectionID]
				next[*p.SectionID]++
			}
			res, err = tx.Exec(`
				UPDATE blocks SET sort_order = $1, section_id = $2, updated_at = NOW()
				WHERE id = $3 AND user_id = $4 AND kind = $5
			`, order, p.SectionID, p.ID, userID, p.Kind)
		default:
			return fmt.Errorf("reorder %s: unknown kind: %w", key, ErrInvalidPlacement)
		}
		if err != nil {
			return fmt.Errorf("reorder %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("reorder %s: %w", key, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reorder commit: %w", err)
	}
	return nil
}

// FindLink returns a live link by id together with its owner, for the
// public click-through route. Returns nil if no active, unarchived link
// has this id.
func (s *BlockStore) FindLink(id int64) (*models.Link, uuid.UUID, error) {
	var owner uuid.UUID
	row := s.db.QueryRow(`
		SELECT `+blockColumns+`, user_id FROM blocks
		WHERE id = $1 AND kind = 'link' AND active AND NOT archived
	`, id)
	rec, err := scanBlock(scanWith{row: row, extra: []any{&owner}})
	if err == sql.ErrNoRows {
		return nil, uuid.Nil, nil
	}
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("find link: %w", err)
	}
	return rec.(*models.Link), owner, nil
}

// scanWith appends extra destinations after the block columns.
type scanWith struct {
	row   interface{ Scan(...any) error }
	extra []any
}

func (s scanWith) Scan(dest ...any) error {
	return s.row.Scan(append(dest, s.extra...)...)
}

// RecordClick increments the click counter of an active link and returns
// the updated link. When the link reaches its deleteOnClicks threshold it
// is archived. Returns nil if no active link has this id.
func (s *BlockStore) RecordClick(id int64) (*models.Link, error) {
	rec, err := scanBlock(s.db.QueryRow(`
		UPDATE blocks
		SET data = jsonb_set(data, '{clicks}', to_jsonb(COALESCE((data->>'clicks')::int, 0) + 1)),
		    archived = archived OR COALESCE(COALESCE((data->>'clicks')::int, 0) + 1 >= (data->>'deleteOnClicks')::int, FALSE),
		    updated_at = NOW()
		WHERE id = $1 AND kind = 'link' AND active AND NOT archived
		RETURNING `+blockColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record click: %w", err)
	}
	return rec.(*models.Link), nil
}

// checkSection verifies that a section id, if set, belongs to the user.
func checkSection(tx *sql.Tx, userID uuid.UUID, sectionID *int64) error {
	if sectionID == nil {
		return nil
	}
	var exists bool
	err := tx.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM sections WHERE id = $1 AND user_id = $2 AND NOT archived)
	`, *sectionID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check section: %w", err)
	}
	if !exists {
		return fmt.Errorf("section %d: %w", *sectionID, ErrNotFound)
	}
	return nil
}

// nextOrder returns the order that appends to a container. The top level
// is shared by sections and unsectioned blocks.
func nextOrder(tx *sql.Tx, userID uuid.UUID, sectionID *int64) (int, error) {
	var order int
	err := tx.QueryRow(`
		SELECT COALESCE(MAX(o) + 1, 0) FROM (
			SELECT sort_order AS o FROM blocks
			WHERE user_id = $1 AND NOT archived AND section_id IS NOT DISTINCT FROM $2
			UNION ALL
			SELECT sort_order FROM sections
			WHERE user_id = $1 AND NOT archived AND $2::bigint IS NULL
		) t
	`, userID, sectionID).Scan(&order)
	if err != nil {
		return 0, fmt.Errorf("next order: %w", err)
	}
	return order, nil
}

func sectionIDs(tx *sql.Tx, userID uuid.UUID) (map[int64]bool, error) {
	rows, err := tx.Query(`SELECT id FROM sections WHERE user_id = $1 AND NOT archived`, userID)
	if err != nil {
		return nil, fmt.Errorf("list section ids: %w", err)
	}
	defer rows.Close()
	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan section id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func sameSection(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
