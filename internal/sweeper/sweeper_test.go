package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	calls int
	hits  []int
}

func (f *fakeStore) Sweep(ttl time.Duration) (int, int) {
	f.calls++
	return 1, f.hits[f.calls-1]
}

func TestRunTTLZeroSweepsOnceAndStops(t *testing.T) {
	store := &fakeStore{hits: []int{0}}
	done := make(chan struct{})
	go func() {
		Run(store, 0, 0, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for ttl=0")
	}
	assert.Equal(t, 1, store.calls)
}
