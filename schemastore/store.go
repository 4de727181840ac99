// Package schemastore persists emitted interface documents in SQLite,
// keyed by the content hash of their canonical binary form. Compilers in
// a long-lived service use it to skip re-emission of unchanged units and
// to look up the interface another unit was compiled against.
package schemastore

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aril-lang/aril/compiler/idl"
)

// ErrNotFound indicates the requested document doesn't exist.
var ErrNotFound = errors.New("schemastore: document not found")

// Store handles SQLite storage for interface documents.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Entry describes one stored document.
type Entry struct {
	ID        string
	Unit      string
	Hash      string
	CreatedAt time.Time
}

// Open opens (creating if needed) a schema store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS schemas (
		id TEXT PRIMARY KEY,
		unit TEXT NOT NULL,
		hash TEXT NOT NULL UNIQUE,
		doc BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the document for the named unit and returns the row id. If a
// document with the same content hash is already stored, Put returns the
// existing row's id without writing.
func (s *Store) Put(unit string, doc *idl.Document) (string, error) {
	data, err := idl.MarshalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("schemastore: encode document: %w", err)
	}
	sum, err := idl.DocumentHash(doc)
	if err != nil {
		return "", fmt.Errorf("schemastore: hash document: %w", err)
	}
	hash := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing string
	err = s.db.QueryRow("SELECT id FROM schemas WHERE hash = ?", hash).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("schemastore: lookup: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO schemas (id, unit, hash, doc, created_at) VALUES (?, ?, ?, ?, ?)",
		id, unit, hash, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("schemastore: insert: %w", err)
	}
	return id, nil
}

// Get loads the document with the given content hash (hex form).
func (s *Store) Get(hash string) (*idl.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT doc FROM schemas WHERE hash = ?", hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schemastore: lookup: %w", err)
	}
	doc, err := idl.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("schemastore: decode document: %w", err)
	}
	return doc, nil
}

// Latest loads the most recently stored document for the named unit.
// Recency is insertion order (the table's rowid), not the created_at
// column: the timestamp has second granularity and can tie.
func (s *Store) Latest(unit string) (*idl.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(
		"SELECT doc FROM schemas WHERE unit = ? ORDER BY rowid DESC LIMIT 1",
		unit,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schemastore: lookup: %w", err)
	}
	doc, err := idl.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("schemastore: decode document: %w", err)
	}
	return doc, nil
}

// List returns the entries of all stored documents, newest first.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT id, unit, hash, created_at FROM schemas ORDER BY rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("schemastore: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Unit, &e.Hash, &created); err != nil {
			return nil, fmt.Errorf("schemastore: scan: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schemastore: list: %w", err)
	}
	return entries, nil
}
