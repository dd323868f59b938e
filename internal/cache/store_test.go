package cache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheableRejectsQueryStrings(t *testing.T) {
	assert.True(t, Cacheable("http://h/page"))
	assert.False(t, Cacheable("http://h/page?x=1"))
}

func TestOpenForWriteThenLookupRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	uri := "http://example.test/index.html"
	w := s.OpenForWrite(uri)
	w.Append([]byte("HTTP/1.1 200 OK\r\n\r\n"))
	w.Append([]byte("hello"))
	w.Close()

	h, ok := s.Lookup(uri, time.Hour)
	require.True(t, ok)
	body, err := io.ReadAll(h.Body())
	require.NoError(t, err)
	h.Release()

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\nhello", string(body))

	raw, err := os.ReadFile(filepath.Join(dir, keyFor(uri)))
	require.NoError(t, err)
	assert.Equal(t, uri+"\nHTTP/1.1 200 OK\r\n\r\nhello", string(raw))
}

func TestLookupMissOnUnknownURI(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := s.Lookup("http://nope.test/", time.Hour)
	assert.False(t, ok)
}

func TestLookupMissWhenTTLZero(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	uri := "http://example.test/"
	w := s.OpenForWrite(uri)
	w.Append([]byte("X"))
	w.Close()

	_, ok := s.Lookup(uri, 0)
	assert.False(t, ok)
}

func TestLookupMissAfterTTLExpires(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	uri := "http://example.test/"
	w := s.OpenForWrite(uri)
	w.Append([]byte("X"))
	w.Close()

	old := time.Now().Add(-2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, keyFor(uri)), old, old))

	_, ok := s.Lookup(uri, time.Second)
	assert.False(t, ok)
}

func TestOpenForWriteNonCacheableIsDry(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	uri := "http://example.test/page?x=1"
	w := s.OpenForWrite(uri)
	w.Append([]byte("X"))
	w.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweepEvictsExpiredEntriesOnly(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	fresh := "http://fresh.test/"
	stale := "http://stale.test/"

	for _, uri := range []string{fresh, stale} {
		w := s.OpenForWrite(uri)
		w.Append([]byte("X"))
		w.Close()
	}

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, keyFor(stale)), old, old))

	scanned, evicted := s.Sweep(time.Minute)
	assert.Equal(t, 2, scanned)
	assert.Equal(t, 1, evicted)

	_, err = os.Stat(filepath.Join(dir, keyFor(stale)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, keyFor(fresh)))
	assert.NoError(t, err)
}

func TestReadersAndWritersStayNonNegative(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	uri := "http://example.test/"
	w := s.OpenForWrite(uri)
	w.Append([]byte("X"))
	w.Close()

	h, ok := s.Lookup(uri, time.Hour)
	require.True(t, ok)
	h.Release()

	readers, writers := s.coord.counts()
	assert.GreaterOrEqual(t, readers, 0)
	assert.GreaterOrEqual(t, writers, 0)
	assert.Equal(t, 0, readers)
	assert.Equal(t, 0, writers)
}
