package resultcache

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangsnmp/mibflat/mib"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testEntry() *Entry {
	return &Entry{
		Module: "TEST-MIB",
		Rows: []mib.Row{
			{Module: "TEST-MIB", Name: "testObject", OID: "1.3.6.1.4.1.9999.1.1", Kind: mib.KindScalar},
			{Module: "TEST-MIB", Name: "testNotify", OID: "1.3.6.1.4.1.9999.0.1", Kind: mib.KindNotification},
		},
	}
}

func TestIdentityKey(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "TEST-MIB.mib", "contents")

	id1, err := IdentityOf(path)
	require.NoError(t, err)
	id2, err := IdentityOf(path)
	require.NoError(t, err)
	assert.Equal(t, id1.Key(), id2.Key(), "identical file, identical key")

	other := writeSource(t, dir, "OTHER-MIB.mib", "contents")
	id3, err := IdentityOf(other)
	require.NoError(t, err)
	assert.NotEqual(t, id1.Key(), id3.Key(), "path is part of the key")
}

func TestIdentityOfMissingFile(t *testing.T) {
	_, err := IdentityOf(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestPutGetRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "results.db"), 0, 0, nil)
	require.NoError(t, err)
	defer cache.Close()

	path := writeSource(t, dir, "TEST-MIB.mib", "source text")
	id, err := IdentityOf(path)
	require.NoError(t, err)

	assert.Nil(t, cache.Get(id), "cold cache misses")

	require.NoError(t, cache.Put(id, testEntry()))

	got := cache.Get(id)
	require.NotNil(t, got)
	assert.Equal(t, "TEST-MIB", got.Module)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, mib.KindScalar, got.Rows[0].Kind)
	assert.Equal(t, "1.3.6.1.4.1.9999.0.1", got.Rows[1].OID)
}

func TestChangedFileMisses(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "results.db"), 0, 0, nil)
	require.NoError(t, err)
	defer cache.Close()

	path := writeSource(t, dir, "TEST-MIB.mib", "original")
	id, err := IdentityOf(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(id, testEntry()))

	// A content change alters size (and typically mtime); the identity hash
	// changes with it, so the old entry is simply unreachable.
	require.NoError(t, os.WriteFile(path, []byte("changed content, longer"), 0o644))
	newID, err := IdentityOf(path)
	require.NoError(t, err)

	assert.NotEqual(t, id.Key(), newID.Key())
	assert.Nil(t, cache.Get(newID))
}

// backdate shifts every entry's creation time into the past.
func backdate(t *testing.T, dbPath string, by time.Duration) {
	t.Helper()
	raw, err := sql.Open(driverName, dbPath)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Exec(`UPDATE results SET created_unix = created_unix - ?`, int64(by.Seconds()))
	require.NoError(t, err)
}

func TestTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.db")
	cache, err := Open(dbPath, time.Hour, 0, nil)
	require.NoError(t, err)

	path := writeSource(t, dir, "TEST-MIB.mib", "source")
	id, err := IdentityOf(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(id, testEntry()))
	require.NotNil(t, cache.Get(id), "fresh entry hits")
	require.NoError(t, cache.Close())

	backdate(t, dbPath, 2*time.Hour)

	cache, err = Open(dbPath, time.Hour, 0, nil)
	require.NoError(t, err)
	defer cache.Close()
	assert.Nil(t, cache.Get(id), "entry past its TTL is a miss")
	assert.Nil(t, cache.Get(id), "and was deleted, not resurrected")
}

func TestCorruptPayloadSelfHeals(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.db")
	cache, err := Open(dbPath, 0, 0, nil)
	require.NoError(t, err)

	path := writeSource(t, dir, "TEST-MIB.mib", "source")
	id, err := IdentityOf(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(id, testEntry()))
	require.NoError(t, cache.Close())

	// Truncate the stored payload behind the cache's back.
	raw, err := sql.Open(driverName, dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`UPDATE results SET payload = ?`, []byte(`{"module": "TEST`))
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	cache, err = Open(dbPath, 0, 0, nil)
	require.NoError(t, err)
	defer cache.Close()

	assert.Nil(t, cache.Get(id), "undecodable entry reports a miss, not an error")

	raw, err = sql.Open(driverName, dbPath)
	require.NoError(t, err)
	defer raw.Close()
	var count int
	require.NoError(t, raw.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count))
	assert.Equal(t, 0, count, "the corrupt row was deleted")
}

func TestBudgetEviction(t *testing.T) {
	dir := t.TempDir()

	// Budget fits roughly one entry, so storing a second must evict.
	cache, err := Open(filepath.Join(dir, "results.db"), 0, 400, nil)
	require.NoError(t, err)
	defer cache.Close()

	first := writeSource(t, dir, "FIRST-MIB.mib", "first source")
	second := writeSource(t, dir, "SECOND-MIB.mib", "second source")

	firstID, err := IdentityOf(first)
	require.NoError(t, err)
	secondID, err := IdentityOf(second)
	require.NoError(t, err)

	require.NoError(t, cache.Put(firstID, testEntry()))
	require.NoError(t, cache.Put(secondID, testEntry()))

	hits := 0
	if cache.Get(firstID) != nil {
		hits++
	}
	if cache.Get(secondID) != nil {
		hits++
	}
	assert.Equal(t, 1, hits, "the budget holds one entry; one of the two was evicted")
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.db")
	cache, err := Open(dbPath, time.Hour, 0, nil)
	require.NoError(t, err)

	path := writeSource(t, dir, "TEST-MIB.mib", "source")
	id, err := IdentityOf(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(id, testEntry()))
	require.NoError(t, cache.Close())

	backdate(t, dbPath, 2*time.Hour)

	cache, err = Open(dbPath, time.Hour, 0, nil)
	require.NoError(t, err)
	defer cache.Close()
	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 0, cache.Sweep())
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "results.db"), 0, 0, nil)
	require.NoError(t, err)
	defer cache.Close()

	assert.Equal(t, 0, cache.Sweep())
}
