// Package cache implements the filesystem-backed cache store of spec §4.3:
// hash(URI) -> (URI-tag, response bytes, mtime), guarded by the
// reader/writer protocol of §5.
//
// File storage is delegated to github.com/peterbourgon/diskv configured
// with a flat (no-op) transform, which stores each entry as a single file
// named by its key directly under the base path — exactly the "decimal
// CacheKey under a fixed directory" layout §3 mandates — and which writes
// through a temporary sibling before an atomic rename, satisfying the
// Design Notes' (§9) call for temp-then-rename atomicity without this
// package hand-rolling it.
package cache

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/diskv"

	"github.com/mason-ferrell/uproxy/internal/hashkey"
	"github.com/mason-ferrell/uproxy/internal/log"
)

// Store is the on-disk response cache.
type Store struct {
	dir   string
	dv    *diskv.Diskv
	coord *rwCoordinator
}

// New opens (creating if needed) a Store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 0,
		// A non-empty TempDir makes WriteStream write a temporary file and
		// rename it into place; using dir keeps the rename on one device.
		TempDir: dir,
	})
	return &Store{dir: dir, dv: dv, coord: newRWCoordinator()}, nil
}

// Cacheable reports whether uri is eligible for caching: it must not
// contain a query string (§3 Cacheable predicate).
func Cacheable(uri string) bool {
	return !strings.ContainsRune(uri, '?')
}

func keyFor(uri string) string {
	return strconv.FormatUint(hashkey.DJB2(uri), 10)
}

// LockSearch / UnlockSearch bracket a Lookup call through the worker's
// subsequent read-vs-write decision (§5 search_mutex).
func (s *Store) LockSearch()   { s.coord.LockSearch() }
func (s *Store) UnlockSearch() { s.coord.UnlockSearch() }

// ReaderHandle is a Hit result: an open stream positioned just after the
// tag line, which the caller must Release.
type ReaderHandle struct {
	store *Store
	body  io.ReadCloser
}

// Body is the response bytes following the tag line.
func (h *ReaderHandle) Body() io.Reader { return h.body }

// Release decrements the reader count, releasing the write gate when the
// last reader leaves (§5 reader release).
func (h *ReaderHandle) Release() {
	_ = h.body.Close()
	h.store.coord.releaseRead()
}

// Lookup implements §4.3 Lookup(URI, ttl). ttl == 0 always misses, per
// spec §6 ("a ttl of 0 disables caching entirely").
func (s *Store) Lookup(uri string, ttl time.Duration) (*ReaderHandle, bool) {
	if ttl <= 0 {
		return nil, false
	}

	key := keyFor(uri)

	s.coord.acquireRead()

	path := filepath.Join(s.dir, key)
	info, err := os.Stat(path)
	if err != nil {
		s.coord.releaseRead()
		return nil, false
	}
	if time.Since(info.ModTime()) > ttl {
		s.coord.releaseRead()
		return nil, false
	}

	rc, err := s.dv.ReadStream(key, false)
	if err != nil {
		s.coord.releaseRead()
		return nil, false
	}

	br := bufio.NewReader(rc)
	tag, err := br.ReadString('\n')
	if err != nil || strings.TrimSuffix(tag, "\n") != uri {
		_ = rc.Close()
		s.coord.releaseRead()
		return nil, false
	}

	return &ReaderHandle{store: s, body: &bufReaderCloser{Reader: br, Closer: rc}}, true
}

type bufReaderCloser struct {
	*bufio.Reader
	io.Closer
}

// WriterHandle is returned by OpenForWrite; Append streams bytes into the
// cache entry (or is a no-op for a non-cacheable "dry" handle), Close
// finalises it.
type WriterHandle struct {
	store *Store
	dry   bool
	pw    *io.PipeWriter
	done  chan error
}

// Append writes a chunk of the upstream response to the cache entry.
func (h *WriterHandle) Append(p []byte) {
	if h.dry || len(p) == 0 {
		return
	}
	if _, err := h.pw.Write(p); err != nil {
		log.Debugf("cache: write append failed: %v", err)
	}
}

// Close finalises the write and releases the writer slot (§5 writer
// release). A failed write leaves whatever partial entry diskv produced,
// matching the best-effort cache semantics of §7.
func (h *WriterHandle) Close() {
	if !h.dry {
		_ = h.pw.Close()
		if err := <-h.done; err != nil {
			log.Debugf("cache: store failed: %v", err)
		}
	}
	h.store.coord.releaseWriteCounter()
}

// OpenForWrite implements §4.3 OpenForWrite(URI). The writer count is
// always incremented; a non-cacheable URI gets a "dry" handle that drops
// every byte.
func (s *Store) OpenForWrite(uri string) *WriterHandle {
	s.coord.acquireWriteCounter()

	if !Cacheable(uri) {
		return &WriterHandle{store: s, dry: true}
	}

	key := keyFor(uri)
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		tag := bytes.NewBufferString(uri + "\n")
		done <- s.dv.WriteStream(key, io.MultiReader(tag, pr), true)
	}()

	return &WriterHandle{store: s, pw: pw, done: done}
}

// Sweep implements §4.7: remove every entry older than ttl. ttl == 0 means
// "one pass then stop caring" — the caller decides whether to loop.
func (s *Store) Sweep(ttl time.Duration) (scanned, evicted int) {
	s.coord.acquireWriteExclusive()
	defer s.coord.releaseWriteExclusive()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warnf("cache: sweep: readdir %s: %v", s.dir, err)
		return 0, 0
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		scanned++

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= ttl {
			continue
		}
		if err := s.dv.Erase(entry.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debugf("cache: sweep: evict %s: %v", entry.Name(), err)
			continue
		}
		evicted++
	}
	return scanned, evicted
}
