// Package docstore keeps named JSON documents ("tables") on a pluggable backend and
// serializes read-modify-write sequences per table.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
)

var (
	// ErrNotFound means the table has never been written.
	ErrNotFound = errors.New("docstore: table not found")
	// ErrCorrupt means the stored bytes are not a valid document.
	ErrCorrupt = errors.New("docstore: table corrupt")
)

var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Backend stores whole documents as opaque bytes. Put must replace the document atomically:
// readers see either the old or the new bytes, never a mix.
type Backend interface {
	// Init stores def only if the table does not exist yet.
	Init(ctx context.Context, table string, def []byte) error
	Get(ctx context.Context, table string) ([]byte, error)
	Put(ctx context.Context, table string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Store is safe for concurrent use.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(b Backend) *Store {
	return &Store{backend: b, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) tableLock(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[table]
	if !ok {
		l = &sync.Mutex{}
		s.locks[table] = l
	}
	return l
}

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("docstore: invalid table name %q", table)
	}
	return nil
}

// Initialize creates table with def iff it does not exist. Existing data is never touched.
func (s *Store) Initialize(ctx context.Context, table string, def any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	data, err := encode(def)
	if err != nil {
		return fmt.Errorf("docstore: encode default %s: %w", table, err)
	}
	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()
	if err := s.backend.Init(ctx, table, data); err != nil {
		return fmt.Errorf("docstore: init %s: %w", table, err)
	}
	return nil
}

// Read decodes the table into dst. It returns an error wrapping ErrNotFound or ErrCorrupt
// instead of failing hard, so callers can fall back to an empty value.
func (s *Store) Read(ctx context.Context, table string, dst any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	data, err := s.backend.Get(ctx, table)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("docstore: read %s: %w", table, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, table, err)
	}
	return nil
}

// ReadRaw returns the stored bytes untouched.
func (s *Store) ReadRaw(ctx context.Context, table string) ([]byte, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, table)
}

// Write replaces the table with v under the table lock. Use Update for read-modify-write.
func (s *Store) Write(ctx context.Context, table string, v any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()
	return s.put(ctx, table, v)
}

func (s *Store) put(ctx context.Context, table string, v any) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", table, err)
	}
	if err := s.backend.Put(ctx, table, data); err != nil {
		return fmt.Errorf("docstore: write %s: %w", table, err)
	}
	return nil
}

// Update runs read -> fn -> write on table while holding the table lock, so concurrent
// updates of the same table never lose each other's changes. A missing table starts from
// the zero value of T. If fn returns an error nothing is written.
func Update[T any](ctx context.Context, s *Store, table string, fn func(*T) error) error {
	if err := checkTable(table); err != nil {
		return err
	}
	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()

	var doc T
	if err := s.Read(ctx, table, &doc); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.put(ctx, table, &doc)
}

func (s *Store) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

func (s *Store) Close() error { return s.backend.Close() }

func encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
