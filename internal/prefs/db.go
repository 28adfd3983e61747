package prefs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

// Preference keys.
const (
	KeyADBLocation      = "ADB_LOCATION"
	KeyJarLocation      = "JAR_LOCATION"
	KeySavedConnections = "SAVED_CONNECTIONS"
)

// DefaultNode is the namespace preferences are stored under.
const DefaultNode = "adbwifi"

// Store is a key-value preferences store backed by SQLite. Writes are staged
// in memory and only reach the database on Flush.
type Store struct {
	db   *sql.DB
	path string
	node string

	mu      sync.Mutex
	pending map[string]*string // nil value marks a removal
}

// Open opens (or creates) the preferences database in dir, scoped to node.
func Open(dir, node string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	if node == "" {
		node = DefaultNode
	}
	dbPath := filepath.Join(dir, "prefs.db")
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	// One connection keeps Flush transactions and reads strictly ordered.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &Store{
		db:      sqlDB,
		path:    dbPath,
		node:    node,
		pending: make(map[string]*string),
	}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database. Unflushed changes are discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path to the preferences database file.
func (s *Store) Path() string {
	return s.path
}

// Node returns the namespace of this store.
func (s *Store) Node() string {
	return s.node
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		node TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (node, key)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Get returns the value for key, or def if it is unset or unreadable.
func (s *Store) Get(key, def string) string {
	s.mu.Lock()
	if v, ok := s.pending[key]; ok {
		s.mu.Unlock()
		if v == nil {
			return def
		}
		return *v
	}
	s.mu.Unlock()

	var value string
	err := s.db.QueryRow(
		`SELECT value FROM prefs WHERE node = ? AND key = ?`, s.node, key,
	).Scan(&value)
	if err != nil {
		return def
	}
	return value
}

// Put stages value for key.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = &value
}

// Remove stages the removal of key.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = nil
}

// Flush writes all staged changes in one transaction. On failure the changes
// stay staged so a later Flush can retry them.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("flush prefs: %w", err)
	}
	now := time.Now()
	for key, value := range s.pending {
		if value == nil {
			_, err = tx.Exec(`DELETE FROM prefs WHERE node = ? AND key = ?`, s.node, key)
		} else {
			_, err = tx.Exec(
				`INSERT INTO prefs (node, key, value, updated_at)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(node, key) DO UPDATE SET
				   value = excluded.value,
				   updated_at = excluded.updated_at`,
				s.node, key, *value, now,
			)
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("flush prefs %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush prefs: %w", err)
	}
	s.pending = make(map[string]*string)
	return nil
}

// Keys returns the stored keys of this node, staged changes included.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM prefs WHERE node = ?`, s.node)
	if err != nil {
		return nil, fmt.Errorf("list prefs: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan prefs: %w", err)
		}
		seen[k] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for k, v := range s.pending {
		seen[k] = v != nil
	}
	s.mu.Unlock()

	keys := lo.Keys(lo.PickBy(seen, func(_ string, present bool) bool { return present }))
	sort.Strings(keys)
	return keys, nil
}
