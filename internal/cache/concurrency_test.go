package cache

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWritesToSameURILeaveOneWholeEntry exercises §8 invariant 6:
// concurrent writers for the same cacheable URI never corrupt the cache
// file — whichever writer's rename lands last, the file is a complete tag
// line followed by a complete response.
func TestConcurrentWritesToSameURILeaveOneWholeEntry(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	uri := "http://example.test/shared"
	const n = 8

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			w := s.OpenForWrite(uri)
			w.Append([]byte("HTTP/1.1 200 OK\r\n\r\n"))
			w.Append([]byte("payload"))
			w.Close()
		}()
	}
	wg.Wait()

	h, ok := s.Lookup(uri, time.Hour)
	require.True(t, ok)
	var body strings.Builder
	buf := make([]byte, 64)
	for {
		n, err := h.Body().Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}
	h.Release()

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\npayload", body.String())

	readers, writers := s.coord.counts()
	assert.Equal(t, 0, readers)
	assert.Equal(t, 0, writers)
}

// TestConcurrentReadersAndWriterDifferentURIs exercises that a hit on one
// URI can proceed concurrently with a miss/write on a different URI.
func TestConcurrentReadersAndWriterDifferentURIs(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	cached := "http://example.test/cached"
	w := s.OpenForWrite(cached)
	w.Append([]byte("X"))
	w.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		h, ok := s.Lookup(cached, time.Hour)
		assert.True(t, ok)
		if ok {
			h.Release()
		}
	}()

	go func() {
		defer wg.Done()
		w2 := s.OpenForWrite("http://example.test/other")
		w2.Append([]byte("Y"))
		w2.Close()
	}()

	wg.Wait()

	readers, writers := s.coord.counts()
	assert.Equal(t, 0, readers)
	assert.Equal(t, 0, writers)
}
