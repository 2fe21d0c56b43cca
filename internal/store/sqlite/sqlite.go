// Package sqlite implements the store contract on a local SQLite file, the
// same metadata layout a desktop gallery keeps: images, tags, their links,
// and a cached MinHash signature BLOB per image.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kozaktomas/tag-search/internal/minhash"
	"github.com/kozaktomas/tag-search/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	minhash_signature BLOB
);
CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS image_tags (
	image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (image_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);
CREATE INDEX IF NOT EXISTS idx_image_tags_tag ON image_tags(tag_id);`

// Store is a SQLite-backed store.Store. Image identifiers are filesystem
// paths, which is also what directory scoping matches against.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scopeFilter builds the "path falls under one of these directories" SQL
// fragment. Returns ok=false for an empty scope, which matches nothing.
func scopeFilter(scope store.Scope) (cond string, args []any, ok bool) {
	if len(scope) == 0 {
		return "", nil, false
	}
	conds := make([]string, 0, len(scope))
	for _, dir := range scope {
		if dir == "" {
			// empty prefix matches the whole collection
			return "1=1", nil, true
		}
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		conds = append(conds, "path LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(dir)+"%")
	}
	return "(" + strings.Join(conds, " OR ") + ")", args, true
}

// escapeLike escapes LIKE wildcards in a literal prefix.
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
		WHERE i.path = ?`, id)
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
	cond, scopeArgs, ok := scopeFilter(scope)
	if !ok {
		return store.ImageSet{}, nil
	}
	args := append([]any{store.NormalizeTag(tag)}, scopeArgs...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.path FROM images i
		JOIN image_tags it ON it.image_id = i.id
		JOIN tags t ON t.id = it.tag_id
		WHERE t.name = ? AND `+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("querying images with tag %q: %w", tag, err)
	}
	defer rows.Close()
	return scanImageSet(rows)
}

// AllImages implements store.TagIndex.
func (s *Store) AllImages(ctx context.Context, scope store.Scope) (store.ImageSet, error) {
	cond, args, ok := scopeFilter(scope)
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
		`SELECT minhash_signature FROM images WHERE path = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying signature for %q: %w", id, err)
	}
	sig, err := minhash.FromBytes(blob)
	if err != nil {
		// Corrupt blob: report no cached signature so the caller recomputes.
		return nil, nil
	}
	return sig, nil
}

// PutSignature implements store.SignatureStore.
func (s *Store) PutSignature(ctx context.Context, id string, sig minhash.Signature) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE images SET minhash_signature = ? WHERE path = ?`, sig.Bytes(), id)
	if err != nil {
		return fmt.Errorf("storing signature for %q: %w", id, err)
	}
	return nil
}

// AddImage implements store.TagWriter. Existing tags for the image are
// replaced and its cached signature is cleared, since it no longer matches.
func (s *Store) AddImage(ctx context.Context, id string, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO images (path) VALUES (?)
		ON CONFLICT(path) DO UPDATE SET minhash_signature = NULL`, id); err != nil {
		return fmt.Errorf("upserting image %q: %w", id, err)
	}
	// LastInsertId is unreliable on the conflict path, so resolve explicitly.
	var imageID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM images WHERE path = ?`, id).Scan(&imageID); err != nil {
		return fmt.Errorf("resolving image id for %q: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM image_tags WHERE image_id = ?`, imageID); err != nil {
		return fmt.Errorf("clearing tags for %q: %w", id, err)
	}

	for _, tag := range tags {
		name := store.NormalizeTag(tag)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("inserting tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO image_tags (image_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?`, imageID, name); err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// RemoveImage implements store.TagWriter.
func (s *Store) RemoveImage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE path = ?`, id); err != nil {
		return fmt.Errorf("removing image %q: %w", id, err)
	}
	return nil
}
