package cache

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowspace/trafficscore/index"
	"github.com/snowspace/trafficscore/index/kdtree"
	"github.com/snowspace/trafficscore/sample"
	"github.com/snowspace/trafficscore/scorer"
	"github.com/snowspace/trafficscore/storage"
)

var measurements = []sample.Measurement{
	{Lon: -79.76, Lat: 43.65, Value: 500},
	{Lon: -79.70, Lat: 43.70, Value: 100},
	{Lon: -79.72, Lat: 43.68, Value: 250},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	// Each in-memory connection is its own database; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func builder(calls *int) BuildFunc {
	return func(ctx context.Context) (*sample.Store, index.Index, error) {
		*calls++
		st := sample.NewStore(measurements)
		idx := &kdtree.Index{}
		if err := idx.Build(st.Points()); err != nil {
			return nil, nil, err
		}
		return st, idx, nil
	}
}

func scoreAt(t *testing.T, st *sample.Store, idx index.Index, lon, lat float64) float64 {
	t.Helper()
	e, err := scorer.NewWithIndex(st, idx, scorer.WithNeighbors(2))
	require.NoError(t, err)
	s, err := e.ScoreOne(lon, lat)
	require.NoError(t, err)
	return s
}

func TestLoadOrBuild_BuildsOncePerFingerprint(t *testing.T) {
	db := openDB(t)
	fp := Fingerprint(measurements)
	calls := 0
	build := builder(&calls)

	mgr, err := New(db)
	require.NoError(t, err)

	st1, idx1, err := mgr.LoadOrBuild(context.Background(), fp, build)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	st2, idx2, err := mgr.LoadOrBuild(context.Background(), fp, build)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call must not rebuild")
	assert.Equal(t, scoreAt(t, st1, idx1, -79.76, 43.65), scoreAt(t, st2, idx2, -79.76, 43.65))
}

func TestLoadOrBuild_RestoresFromSnapshot(t *testing.T) {
	db := openDB(t)
	fp := Fingerprint(measurements)
	calls := 0
	build := builder(&calls)

	first, err := New(db)
	require.NoError(t, err)
	st1, idx1, err := first.LoadOrBuild(context.Background(), fp, build)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// A fresh manager has no in-process entry and must restore from SQLite.
	second, err := New(db)
	require.NoError(t, err)
	st2, idx2, err := second.LoadOrBuild(context.Background(), fp, build)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "restore must not invoke build")
	assert.Equal(t, st1.Len(), st2.Len())
	assert.Equal(t, scoreAt(t, st1, idx1, -79.70, 43.70), scoreAt(t, st2, idx2, -79.70, 43.70))
}

func TestLoadOrBuild_CorruptSnapshotFallsBackToRebuild(t *testing.T) {
	db := openDB(t)
	require.NoError(t, storage.EnsureSchema(db))
	fp := Fingerprint(measurements)
	_, err := db.Exec(
		`INSERT OR REPLACE INTO scorer_storage(fingerprint, kind, points, "index", created_at) VALUES(?, ?, ?, ?, 0)`,
		fp, "kdtree", []byte("garbage"), []byte("garbage"))
	require.NoError(t, err)

	calls := 0
	mgr, err := New(db)
	require.NoError(t, err)
	st, idx, err := mgr.LoadOrBuild(context.Background(), fp, builder(&calls))
	require.NoError(t, err, "corruption must be recovered, not surfaced")
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 1.0, scoreAt(t, st, idx, -79.76, 43.65), 1e-6)
}

func TestLoadOrBuild_UnknownKindFallsBackToRebuild(t *testing.T) {
	db := openDB(t)
	require.NoError(t, storage.EnsureSchema(db))
	fp := Fingerprint(measurements)

	st := sample.NewStore(measurements)
	pointsBlob, err := sample.EncodePoints(st.Points())
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT OR REPLACE INTO scorer_storage(fingerprint, kind, points, "index", created_at) VALUES(?, ?, ?, ?, 0)`,
		fp, "rtree", pointsBlob, pointsBlob)
	require.NoError(t, err)

	calls := 0
	mgr, err := New(db)
	require.NoError(t, err)
	_, _, err = mgr.LoadOrBuild(context.Background(), fp, builder(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLoadOrBuild_NewFingerprintPrunesStaleSnapshots(t *testing.T) {
	db := openDB(t)
	mgr, err := New(db)
	require.NoError(t, err)

	calls := 0
	fpA := Fingerprint(measurements)
	_, _, err = mgr.LoadOrBuild(context.Background(), fpA, builder(&calls))
	require.NoError(t, err)

	changed := append([]sample.Measurement(nil), measurements...)
	changed[0].Value = 600
	fpB := Fingerprint(changed)
	require.NotEqual(t, fpA, fpB)

	buildChanged := func(ctx context.Context) (*sample.Store, index.Index, error) {
		calls++
		st := sample.NewStore(changed)
		idx := &kdtree.Index{}
		if err := idx.Build(st.Points()); err != nil {
			return nil, nil, err
		}
		return st, idx, nil
	}
	_, _, err = mgr.LoadOrBuild(context.Background(), fpB, buildChanged)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	var count int
	var stored string
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM scorer_storage`).Scan(&count))
	require.NoError(t, db.QueryRow(`SELECT fingerprint FROM scorer_storage`).Scan(&stored))
	assert.Equal(t, 1, count, "stale snapshot must be discarded")
	assert.Equal(t, fpB, stored)
}

func TestLoadOrBuild_InputValidation(t *testing.T) {
	db := openDB(t)
	mgr, err := New(db)
	require.NoError(t, err)
	calls := 0
	_, _, err = mgr.LoadOrBuild(context.Background(), "", builder(&calls))
	assert.Error(t, err)
	_, _, err = mgr.LoadOrBuild(context.Background(), "abc", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestFingerprint_DeterministicAndSensitive(t *testing.T) {
	a := Fingerprint(measurements)
	b := Fingerprint(measurements)
	assert.Equal(t, a, b)

	changed := append([]sample.Measurement(nil), measurements...)
	changed[2].Lat += 1e-9
	assert.NotEqual(t, a, Fingerprint(changed))
	assert.NotEqual(t, a, Fingerprint(measurements[:2]))
}
