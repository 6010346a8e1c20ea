// Package meta persists mark creation timestamps across sessions.
//
// Each document gets one JSON file under the state directory, named by a
// blake3 hash of the document's absolute path. The payload records the path
// alongside the timestamps so a hash collision or a moved file is detected
// at load time and the stale entries discarded.
//
// Persistence is strictly best-effort: mark set/delete must succeed even
// when timestamp persistence fails, so every I/O failure degrades to an
// empty or in-memory-only view and is reported at most once per failure
// class per session.
package meta

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/zeebo/blake3"

	"github.com/dshills/marksman/internal/host"
	"github.com/dshills/marksman/internal/logging"
)

// RetentionWindow is how long a document's metadata survives without any
// fresh timestamps before the startup sweep removes it.
const RetentionWindow = 30 * 24 * time.Hour

// Failure classes for once-per-session reporting.
const (
	failRead   = "read"
	failWrite  = "write"
	failMkdir  = "mkdir"
	failDecode = "decode"
)

// doc is the in-memory state for one document.
type doc struct {
	raw   []byte
	marks map[string]int64
}

// Store maps (document identity, mark letter) to unix timestamps.
type Store struct {
	mu sync.Mutex

	dir    string
	docs   map[string]*doc
	notify host.Notifier
	log    *logging.Logger

	// reported tracks failure classes already surfaced this session.
	reported map[string]bool

	// now is injectable for tests.
	now func() int64
}

// NewStore creates a store rooted at dir. notify may be nil, in which case
// failures are only logged.
func NewStore(dir string, notify host.Notifier, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Null
	}
	return &Store{
		dir:      dir,
		docs:     make(map[string]*doc),
		notify:   notify,
		log:      log.WithComponent("meta"),
		reported: make(map[string]bool),
		now:      func() int64 { return time.Now().Unix() },
	}
}

// identity returns the stable hash of an absolute document path.
func identity(path string) string {
	sum := blake3.Sum256([]byte(path))
	return hex.EncodeToString(sum[:16])
}

// fileFor returns the metadata file path for a document.
func (s *Store) fileFor(path string) string {
	return filepath.Join(s.dir, identity(path)+".json")
}

// Load reads the document's metadata from disk into memory. Calling Load
// again for a loaded document is a no-op. Corrupt or mismatched files are
// treated as empty metadata.
func (s *Store) Load(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(path)
}

// load must be called with the lock held.
func (s *Store) load(path string) *doc {
	if d, ok := s.docs[path]; ok {
		return d
	}

	d := &doc{marks: make(map[string]int64)}
	s.docs[path] = d

	data, err := os.ReadFile(s.fileFor(path))
	if err != nil {
		if !os.IsNotExist(err) {
			s.report(failRead, "mark metadata unreadable: %v", err)
		}
		d.raw = s.skeleton(path)
		return d
	}

	if !gjson.ValidBytes(data) {
		s.report(failDecode, "mark metadata for %s is corrupt, starting empty", filepath.Base(path))
		d.raw = s.skeleton(path)
		return d
	}

	// Identity guard: entries recorded for a different path (hash
	// collision, moved file) are silently discarded.
	if stored := gjson.GetBytes(data, "path").String(); stored != path {
		s.log.Debug("metadata identity mismatch: stored %q, want %q", stored, path)
		d.raw = s.skeleton(path)
		return d
	}

	d.raw = data
	gjson.GetBytes(data, "marks").ForEach(func(key, value gjson.Result) bool {
		d.marks[key.String()] = value.Int()
		return true
	})
	return d
}

// skeleton returns an empty payload for a document.
func (s *Store) skeleton(path string) []byte {
	raw, _ := sjson.SetBytes([]byte(`{"marks":{}}`), "path", path)
	return raw
}

// Get returns the creation timestamp for a mark, or 0 when unknown.
func (s *Store) Get(path, letter string) int64 {
	if path == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path).marks[letter]
}

// Add records a fresh timestamp for a mark and persists it.
func (s *Store) Add(path, letter string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load(path)
	ts := s.now()
	d.marks[letter] = ts
	if raw, err := sjson.SetBytes(d.raw, "marks."+letter, ts); err == nil {
		d.raw = raw
	}
	s.persist(path, d)
}

// Remove deletes a mark's timestamp and persists the removal.
func (s *Store) Remove(path, letter string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load(path)
	if _, ok := d.marks[letter]; !ok {
		return
	}
	delete(d.marks, letter)
	if raw, err := sjson.DeleteBytes(d.raw, "marks."+letter); err == nil {
		d.raw = raw
	}
	s.persist(path, d)
}

// Clear removes every timestamp for a document and persists the empty set.
func (s *Store) Clear(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load(path)
	d.marks = make(map[string]int64)
	d.raw = s.skeleton(path)
	s.persist(path, d)
}

// Release drops the in-memory state for a closed document. On-disk state
// is left alone.
func (s *Store) Release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
}

// persist writes the document payload. Must be called with the lock held.
func (s *Store) persist(path string, d *doc) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.report(failMkdir, "cannot create mark metadata directory: %v", err)
		return
	}
	if err := os.WriteFile(s.fileFor(path), d.raw, 0o644); err != nil {
		s.report(failWrite, "cannot persist mark metadata: %v", err)
	}
}

// report surfaces a failure at most once per class per session.
func (s *Store) report(class, format string, args ...any) {
	s.log.Warn(format, args...)
	if s.reported[class] {
		return
	}
	s.reported[class] = true
	if s.notify != nil {
		s.notify.Warn(format, args...)
	}
}

// Sweep removes metadata files whose newest timestamp is older than the
// retention window. Intended to run once at startup; failures are logged
// and never fatal.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debug("retention sweep skipped: %v", err)
		}
		return
	}

	cutoff := s.now() - int64(RetentionWindow/time.Second)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		full := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(full)
		if err != nil || !gjson.ValidBytes(data) {
			continue
		}

		var newest int64
		gjson.GetBytes(data, "marks").ForEach(func(_, value gjson.Result) bool {
			if ts := value.Int(); ts > newest {
				newest = ts
			}
			return true
		})
		if newest >= cutoff {
			continue
		}
		if err := os.Remove(full); err != nil {
			s.log.Debug("retention sweep: %v", err)
		} else {
			s.log.Debug("retention sweep removed %s", entry.Name())
		}
	}
}

// Dir returns the store's state directory.
func (s *Store) Dir() string {
	return s.dir
}

// DefaultDir returns the default state directory for mark metadata.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving state directory: %w", err)
	}
	return filepath.Join(base, "marksman", "marks"), nil
}
