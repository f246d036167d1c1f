package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/schedulectx/internal/models"
)

// List paging bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Record appends a revision and returns its ID.
func (db *DB) Record(rev models.Revision) (int64, error) {
	if rev.ObservedAt.IsZero() {
		rev.ObservedAt = time.Now().UTC()
	}
	res, err := db.conn.Exec(
		`INSERT INTO revisions (kind, checksum, size, observed_at) VALUES (?, ?, ?, ?)`,
		rev.Kind, rev.Checksum, rev.Size, rev.ObservedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert revision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// Latest returns the most recent revision, or nil when none was recorded.
func (db *DB) Latest() (*models.Revision, error) {
	var rev models.Revision
	err := db.conn.QueryRow(
		`SELECT id, kind, checksum, size, observed_at FROM revisions ORDER BY id DESC LIMIT 1`,
	).Scan(&rev.ID, &rev.Kind, &rev.Checksum, &rev.Size, &rev.ObservedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: latest: %w", err)
	}
	return &rev, nil
}

// List returns revisions newest first together with the total count.
func (db *DB) List(limit, offset int) ([]models.Revision, int, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM revisions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count: %w", err)
	}

	rows, err := db.conn.Query(
		`SELECT id, kind, checksum, size, observed_at FROM revisions ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	out := []models.Revision{}
	for rows.Next() {
		var rev models.Revision
		if err := rows.Scan(&rev.ID, &rev.Kind, &rev.Checksum, &rev.Size, &rev.ObservedAt); err != nil {
			return nil, 0, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("history: rows: %w", err)
	}
	return out, total, nil
}
