// Package snapshot keeps the last good copy of every topology document in a local SQLite file,
// so a map can still be drawn while the upstream source is unreachable.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"topomap/core-go/internal/topology"
)

// ErrMiss is returned by Get when no snapshot exists for the name.
var ErrMiss = errors.New("snapshot not found")

type Cache struct {
	db *sql.DB
}

// Entry is a cached document and when it was stored.
type Entry struct {
	Document *topology.Document
	SavedAt  time.Time
}

// Open creates or opens a cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return newCache(db)
}

// OpenMemory creates an in-memory cache (useful for testing).
func OpenMemory() (*Cache, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory cache: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return newCache(db)
}

func newCache(db *sql.DB) (*Cache, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Cache{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    name TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    node_count INTEGER NOT NULL DEFAULT 0,
    link_count INTEGER NOT NULL DEFAULT 0,
    saved_at INTEGER NOT NULL
);
`

func (c *Cache) Close() error {
	return c.db.Close()
}

// Put replaces the snapshot for doc.Name.
func (c *Cache) Put(ctx context.Context, doc *topology.Document, at time.Time) error {
	if doc == nil || doc.Name == "" {
		return errors.New("snapshot requires a named document")
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.Name, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, document, node_count, link_count, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document = excluded.document,
			node_count = excluded.node_count,
			link_count = excluded.link_count,
			saved_at = excluded.saved_at`,
		doc.Name, string(data), doc.Nodes.Len(), doc.Links.Len(), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("store %s: %w", doc.Name, err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, name string) (Entry, error) {
	var (
		data  string
		saved int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT document, saved_at FROM snapshots WHERE name = ?`, name).Scan(&data, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load %s: %w", name, err)
	}
	doc, err := topology.DecodeJSON(name, []byte(data))
	if err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return Entry{Document: doc, SavedAt: time.UnixMilli(saved)}, nil
}

// List describes every cached topology, by name.
func (c *Cache) List(ctx context.Context) ([]topology.Descriptor, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, node_count, link_count FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []topology.Descriptor
	for rows.Next() {
		var d topology.Descriptor
		if err := rows.Scan(&d.Name, &d.NodeCount, &d.LinkCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *Cache) Delete(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	return err
}
