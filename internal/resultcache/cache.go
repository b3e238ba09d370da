// Package resultcache is the content-addressable cache of a file's final
// row set. Entries are keyed by a hash of (absolute path, mtime, size), so
// any change to the source file misses automatically without content
// hashing. The store self-heals: stale, truncated, or version-mismatched
// entries are deleted and reported as misses, never as errors.
package resultcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"github.com/golangsnmp/mibflat/internal/observability"
	"github.com/golangsnmp/mibflat/mib"
)

const driverName = "sqlite"

// FormatVersion stamps every entry. Bumping it invalidates the whole store
// at startup.
const FormatVersion = 3

// Entry is one cached per-file result.
type Entry struct {
	Module string    `json:"module"`
	Rows   []mib.Row `json:"rows"`
}

// FileIdentity captures the invalidation signature of a source file.
type FileIdentity struct {
	Path  string
	MTime time.Time
	Size  int64
}

// IdentityOf stats a file and builds its identity.
func IdentityOf(path string) (FileIdentity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileIdentity{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileIdentity{}, err
	}
	return FileIdentity{Path: abs, MTime: info.ModTime(), Size: info.Size()}, nil
}

// Key hashes the identity into the cache key.
func (id FileIdentity) Key() string {
	h := xxhash.New()
	_, _ = h.WriteString(id.Path)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatInt(id.MTime.UnixNano(), 10))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatInt(id.Size, 10))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Cache is the SQLite-backed store. A single mutex serializes writers; the
// driver runs with one connection.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger

	ttl      time.Duration
	maxBytes int64

	mu sync.Mutex
}

// Open opens (or creates) the store at path, wiping all entries when their
// format version no longer matches. ttl <= 0 disables expiry; maxBytes <= 0
// disables the size budget.
func Open(path string, ttl time.Duration, maxBytes int64, logger *slog.Logger) (*Cache, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open result cache %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize result cache %q: %w", path, err)
	}

	c := &Cache{db: db, logger: logger, ttl: ttl, maxBytes: maxBytes}
	if err := c.checkFormatVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the store.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// checkFormatVersion wipes the store when it was written by a different
// cache format.
func (c *Cache) checkFormatVersion() error {
	var stored int
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = 'format_version'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stored = 0
	case err != nil:
		return fmt.Errorf("read cache format version: %w", err)
	}

	if stored != FormatVersion {
		if _, err := c.db.Exec(`DELETE FROM results`); err != nil {
			return fmt.Errorf("invalidate result cache: %w", err)
		}
		if _, err := c.db.Exec(
			`INSERT INTO meta(key, value) VALUES('format_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, FormatVersion); err != nil {
			return fmt.Errorf("stamp cache format version: %w", err)
		}
		if stored != 0 && c.logger != nil {
			c.logger.Warn("result cache format changed, store invalidated",
				slog.Int("stored", stored), slog.Int("current", FormatVersion))
		}
	}
	return nil
}

// Get returns the cached entry for the file identity, or nil on a miss.
// An entry older than the file's current mtime, past its TTL, stamped with
// a different format version, or undecodable is deleted and reported as a
// miss.
func (c *Cache) Get(id FileIdentity) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.Key()
	var (
		version     int
		mtimeUnix   int64
		createdUnix int64
		payload     []byte
	)
	err := c.db.QueryRow(
		`SELECT format_version, mtime_unix, created_unix, payload FROM results WHERE key = ?`, key).
		Scan(&version, &mtimeUnix, &createdUnix, &payload)
	if err != nil {
		observability.ResultCacheMissesTotal.Inc()
		return nil
	}

	now := time.Now()
	stale := version != FormatVersion ||
		mtimeUnix < id.MTime.Unix() ||
		(c.ttl > 0 && now.Sub(time.Unix(createdUnix, 0)) > c.ttl)
	if stale {
		c.deleteKey(key)
		observability.ResultCacheMissesTotal.Inc()
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		// Corrupt payload: quarantine silently and treat as a miss.
		c.deleteKey(key)
		observability.ResultCacheMissesTotal.Inc()
		return nil
	}

	_, _ = c.db.Exec(
		`UPDATE results SET accessed_unix = ?, hits = hits + 1 WHERE key = ?`,
		now.Unix(), key)
	observability.ResultCacheHitsTotal.Inc()
	return &entry
}

// Put stores a file's result and enforces the storage budget.
func (c *Cache) Put(id FileIdentity, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	_, err = c.db.Exec(
		`INSERT INTO results(key, format_version, path, mtime_unix, size, payload, created_unix, accessed_unix, hits)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT(key) DO UPDATE SET
		   format_version = excluded.format_version,
		   payload = excluded.payload,
		   created_unix = excluded.created_unix,
		   accessed_unix = excluded.accessed_unix,
		   hits = 0`,
		id.Key(), FormatVersion, id.Path, id.MTime.Unix(), id.Size, payload, now, now)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}

	return c.enforceBudget()
}

// enforceBudget evicts entries until total payload size fits the budget:
// least-recently-accessed first, zero-hit entries breaking ties.
func (c *Cache) enforceBudget() error {
	if c.maxBytes <= 0 {
		return nil
	}

	for {
		var total int64
		if err := c.db.QueryRow(`SELECT COALESCE(SUM(LENGTH(payload)), 0) FROM results`).Scan(&total); err != nil {
			return fmt.Errorf("size result cache: %w", err)
		}
		if total <= c.maxBytes {
			return nil
		}

		var victim string
		err := c.db.QueryRow(
			`SELECT key FROM results ORDER BY accessed_unix ASC, hits ASC LIMIT 1`).Scan(&victim)
		if err != nil {
			return nil
		}
		c.deleteKey(victim)
		observability.ResultCacheEvictionsTotal.Inc()
	}
}

// Sweep removes expired entries; called opportunistically at startup.
func (c *Cache) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec(`DELETE FROM results WHERE created_unix < ?`, cutoff)
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

func (c *Cache) deleteKey(key string) {
	_, _ = c.db.Exec(`DELETE FROM results WHERE key = ?`, key)
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
  key            TEXT PRIMARY KEY,
  format_version INTEGER NOT NULL,
  path           TEXT NOT NULL,
  mtime_unix     INTEGER NOT NULL,
  size           INTEGER NOT NULL,
  payload        BLOB NOT NULL,
  created_unix   INTEGER NOT NULL,
  accessed_unix  INTEGER NOT NULL,
  hits           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_results_accessed ON results(accessed_unix);
`)
	return err
}
