package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/snowspace/trafficscore/index"
	"github.com/snowspace/trafficscore/index/bruteforce"
	"github.com/snowspace/trafficscore/index/kdtree"
	"github.com/snowspace/trafficscore/sample"
	"github.com/snowspace/trafficscore/storage"
)

const (
	kindKDTree = "kdtree"
	kindBrute  = "brute"
)

// BuildFunc runs the full build pipeline (normalize, store, index build)
// when no valid snapshot exists for the fingerprint.
type BuildFunc func(ctx context.Context) (*sample.Store, index.Index, error)

// Manager memoizes built snapshots: in process via per-fingerprint entries
// and across processes via the scorer_storage table. At most one builder
// runs per fingerprint at a time; concurrent callers wait for its result.
type Manager struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report recovered snapshot corruption
// and persistence failures. The manager is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New returns a Manager over the provided database, ensuring the snapshot
// schema exists.
func New(db *sql.DB, opts ...Option) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("cache: db is nil")
	}
	if err := storage.EnsureSchema(db); err != nil {
		return nil, err
	}
	m := &Manager{db: db, entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// LoadOrBuild returns the point store and spatial index for the fingerprint.
// A snapshot persisted under the same fingerprint is restored without
// invoking build; a missing, mismatched, or undeserializable snapshot causes
// a rebuild, after which the result is persisted and snapshots for other
// fingerprints are discarded. Deserialization failures are logged and
// recovered, never surfaced to the caller.
func (m *Manager) LoadOrBuild(ctx context.Context, fingerprint string, build BuildFunc) (*sample.Store, index.Index, error) {
	if fingerprint == "" {
		return nil, nil, fmt.Errorf("cache: fingerprint is required")
	}
	if build == nil {
		return nil, nil, fmt.Errorf("cache: build func is nil")
	}
	e := m.entry(fingerprint)
	for {
		if st, idx, ok := e.get(); ok {
			return st, idx, nil
		}
		if e.startBuild() {
			break
		}
		if st, idx, ok := e.waitForBuild(); ok {
			return st, idx, nil
		}
	}
	defer e.finishBuild()

	if st, idx, ok := m.loadPersisted(ctx, fingerprint); ok {
		e.set(st, idx)
		return st, idx, nil
	}
	st, idx, err := build(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := m.persist(ctx, fingerprint, st, idx); err != nil {
		// The built result is still good; only the memoization is lost.
		m.warn("cache: snapshot persist failed", "fingerprint", fingerprint, "error", err)
	}
	e.set(st, idx)
	return st, idx, nil
}

func (m *Manager) entry(fingerprint string) *entry {
	m.mu.RLock()
	e := m.entries[fingerprint]
	m.mu.RUnlock()
	if e != nil {
		return e
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e = m.entries[fingerprint]; e == nil {
		e = newEntry()
		m.entries[fingerprint] = e
	}
	return e
}

// loadPersisted restores a snapshot row. Any decode failure is treated as a
// cache miss after logging; rebuild recovers the state.
func (m *Manager) loadPersisted(ctx context.Context, fingerprint string) (*sample.Store, index.Index, bool) {
	var kind string
	var pointsBlob, indexBlob []byte
	err := m.db.QueryRowContext(ctx,
		`SELECT kind, points, "index" FROM scorer_storage WHERE fingerprint = ?`,
		fingerprint).Scan(&kind, &pointsBlob, &indexBlob)
	if err != nil {
		if err != sql.ErrNoRows {
			m.warn("cache: snapshot read failed", "fingerprint", fingerprint, "error", err)
		}
		return nil, nil, false
	}
	points, err := sample.DecodePoints(pointsBlob)
	if err != nil {
		m.warn("cache: snapshot points corrupt, rebuilding", "fingerprint", fingerprint, "error", err)
		return nil, nil, false
	}
	st, err := sample.NewStoreFromPoints(points)
	if err != nil {
		m.warn("cache: snapshot points corrupt, rebuilding", "fingerprint", fingerprint, "error", err)
		return nil, nil, false
	}
	idx := indexForKind(kind)
	if idx == nil {
		m.warn("cache: snapshot has unknown index kind, rebuilding", "fingerprint", fingerprint, "kind", kind)
		return nil, nil, false
	}
	if err := idx.UnmarshalBinary(indexBlob); err != nil {
		m.warn("cache: snapshot index corrupt, rebuilding", "fingerprint", fingerprint, "error", err)
		return nil, nil, false
	}
	return st, idx, true
}

func (m *Manager) persist(ctx context.Context, fingerprint string, st *sample.Store, idx index.Index) error {
	kind := kindOf(idx)
	if kind == "" {
		return fmt.Errorf("cache: cannot persist index of type %T", idx)
	}
	pointsBlob, err := sample.EncodePoints(st.Points())
	if err != nil {
		return err
	}
	indexBlob, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	// Source data changed when the fingerprint did; stale snapshots are dead.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scorer_storage WHERE fingerprint != ?`, fingerprint); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO scorer_storage(fingerprint, kind, points, "index", created_at) VALUES(?, ?, ?, ?, ?)`,
		fingerprint, kind, pointsBlob, indexBlob, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Manager) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

func kindOf(idx index.Index) string {
	switch idx.(type) {
	case *kdtree.Index:
		return kindKDTree
	case *bruteforce.Index:
		return kindBrute
	default:
		return ""
	}
}

func indexForKind(kind string) index.Index {
	switch kind {
	case kindKDTree:
		return &kdtree.Index{}
	case kindBrute:
		return &bruteforce.Index{}
	default:
		return nil
	}
}

// entry serializes builds per fingerprint within the process: the first
// caller builds, subsequent callers wait and reuse the result.
type entry struct {
	mu       sync.Mutex
	cond     *sync.Cond
	building bool
	store    *sample.Store
	idx      index.Index
}

func newEntry() *entry {
	e := &entry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *entry) get() (*sample.Store, index.Index, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store, e.idx, e.store != nil
}

func (e *entry) set(st *sample.Store, idx index.Index) {
	e.mu.Lock()
	e.store = st
	e.idx = idx
	e.mu.Unlock()
}

func (e *entry) startBuild() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store != nil || e.building {
		return false
	}
	e.building = true
	return true
}

func (e *entry) waitForBuild() (*sample.Store, index.Index, bool) {
	e.mu.Lock()
	for e.building {
		e.cond.Wait()
	}
	st, idx := e.store, e.idx
	e.mu.Unlock()
	return st, idx, st != nil
}

func (e *entry) finishBuild() {
	e.mu.Lock()
	e.building = false
	e.cond.Broadcast()
	e.mu.Unlock()
}
