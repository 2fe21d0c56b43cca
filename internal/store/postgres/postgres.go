// Package postgres implements the store contract on PostgreSQL for hosted
// deployments where several processes share one tag index.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/minhash"
	"github.com/kozaktomas/tag-search/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL, verifies the connection, and applies pending
// migrations.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// scopeFilter builds the directory-scope condition with placeholders starting
// at $start. Returns ok=false for an empty scope.
func scopeFilter(scope store.Scope, start int) (cond string, args []any, ok bool) {
	if len(scope) == 0 {
		return "", nil, false
	}
	conds := make([]string, 0, len(scope))
	for _, dir := range scope {
		if dir == "" {
			// empty prefix matches the whole collection
			return "TRUE", nil, true
		}
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		conds = append(conds, fmt.Sprintf(`path LIKE $%d ESCAPE '\'`, start+len(args)))
		args = append(args, escapeLike(dir)+"%")
	}
	return "(" + strings.Join(conds, " OR ") + ")", args, true
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// TagsForImage implements store.TagIndex.
func (s *Store) TagsForImage(ctx context.Context, id string) (store.TagSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN image_tags it ON it.tag_id = t.id
		JOIN images i ON i.id = it.image_id
		WHERE i.path = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying tags for %q: %w", id, err)
	}
	defer rows.Close()

	tags := make(store.TagSet)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags[name] = struct{}{}
	}
	return tags, rows.Err()
}

// ImagesWithTag implements store.TagIndex.
func (s *Store) ImagesWithTag(ctx context.Context, tag string, scope store.Scope) (store.ImageSet, error) {
	cond, scopeArgs, ok := scopeFilter(scope, 2)
	if !ok {
		return store.ImageSet{}, nil
	}
	args := append([]any{store.NormalizeTag(tag)}, scopeArgs...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.path FROM images i
		JOIN image_tags it ON it.image_id = i.id
		JOIN tags t ON t.id = it.tag_id
		WHERE t.name = $1 AND `+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("querying images with tag %q: %w", tag, err)
	}
	defer rows.Close()
	return scanImageSet(rows)
}

// AllImages implements store.TagIndex.
func (s *Store) AllImages(ctx context.Context, scope store.Scope) (store.ImageSet, error) {
	cond, args, ok := scopeFilter(scope, 1)
	if !ok {
		return store.ImageSet{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM images WHERE `+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("querying images in scope: %w", err)
	}
	defer rows.Close()
	return scanImageSet(rows)
}

func scanImageSet(rows *sql.Rows) (store.ImageSet, error) {
	out := make(store.ImageSet)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		out[path] = struct{}{}
	}
	return out, rows.Err()
}

// GetSignature implements store.SignatureStore.
func (s *Store) GetSignature(ctx context.Context, id string) (minhash.Signature, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT minhash_signature FROM images WHERE path = $1`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying signature for %q: %w", id, err)
	}
	sig, err := minhash.FromBytes(blob)
	if err != nil {
		return nil, nil
	}
	return sig, nil
}

// PutSignature implements store.SignatureStore.
func (s *Store) PutSignature(ctx context.Context, id string, sig minhash.Signature) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE images SET minhash_signature = $1 WHERE path = $2`, sig.Bytes(), id)
	if err != nil {
		return fmt.Errorf("storing signature for %q: %w", id, err)
	}
	return nil
}

// AddImage implements store.TagWriter.
func (s *Store) AddImage(ctx context.Context, id string, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var imageID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO images (path) VALUES ($1)
		ON CONFLICT (path) DO UPDATE SET minhash_signature = NULL
		RETURNING id`, id).Scan(&imageID)
	if err != nil {
		return fmt.Errorf("upserting image %q: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM image_tags WHERE image_id = $1`, imageID); err != nil {
		return fmt.Errorf("clearing tags for %q: %w", id, err)
	}

	for _, tag := range tags {
		name := store.NormalizeTag(tag)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("inserting tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO image_tags (image_id, tag_id)
			SELECT $1, id FROM tags WHERE name = $2
			ON CONFLICT DO NOTHING`, imageID, name); err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// RemoveImage implements store.TagWriter.
func (s *Store) RemoveImage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE path = $1`, id); err != nil {
		return fmt.Errorf("removing image %q: %w", id, err)
	}
	return nil
}
