package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tagproxy/internal/deps"
	"github.com/roach88/tagproxy/internal/tag"
)

// ErrNotFound is returned when no row has the requested ID.
var ErrNotFound = errors.New("header not found")

// Record describes a stored header without its image.
type Record struct {
	ID     string
	Seq    int64
	Name   string
	NEVR   string
	Origin string
	Digest string
}

// Put stores a header and returns its row ID. Uses ON CONFLICT(digest) DO
// NOTHING for idempotency: storing identical content again returns the
// existing row's ID and leaves its origin untouched.
func (s *Store) Put(ctx context.Context, h *tag.Header) (string, error) {
	image := tag.Marshal(h)
	digest := tag.Digest(image)

	compressed, err := compressImage(image)
	if err != nil {
		return "", fmt.Errorf("put header: compress: %w", err)
	}

	name, nevr := identity(h)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO headers (id, seq, name, nevr, origin, digest, image)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM headers), ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`,
		s.ids.Generate(),
		name,
		nevr,
		h.Origin(),
		digest,
		compressed,
	)
	if err != nil {
		return "", fmt.Errorf("put header: %w", err)
	}

	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM headers WHERE digest = ?`, digest).Scan(&id); err != nil {
		return "", fmt.Errorf("put header: read back id: %w", err)
	}
	return id, nil
}

// Get loads a header by row ID. The header's ID is the row ID and its
// origin is restored.
func (s *Store) Get(ctx context.Context, id string) (*tag.Header, error) {
	var (
		origin     string
		compressed []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT origin, image FROM headers WHERE id = ?`, id).Scan(&origin, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	image, err := decompressImage(compressed)
	if err != nil {
		return nil, fmt.Errorf("get %s: decompress: %w", id, err)
	}
	h, err := tag.UnmarshalWithID(image, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	h.SetOrigin(origin)
	return h, nil
}

// List returns every stored header in insertion order.
//
// Returns an empty slice (not nil) when the database is empty.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT id, seq, name, nevr, origin, digest
		FROM headers
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// FindByName returns the headers whose NAME equals name.
func (s *Store) FindByName(ctx context.Context, name string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT id, seq, name, nevr, origin, digest
		FROM headers
		WHERE name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, name)
}

// Delete removes a header by row ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM headers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query headers: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Seq, &r.Name, &r.NEVR, &r.Origin, &r.Digest); err != nil {
			return nil, fmt.Errorf("scan header: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headers: %w", err)
	}
	return records, nil
}

// identity derives the indexed name and NEVR from the header's
// provides-self dependency. Headers without NAME index as "".
func identity(h *tag.Header) (name, nevr string) {
	self, err := deps.This(h)
	if err != nil || !self.Next() {
		return "", ""
	}
	d, _ := self.Current()
	if d.EVR == "" {
		return d.N, d.N
	}
	return d.N, d.N + "-" + d.EVR
}
