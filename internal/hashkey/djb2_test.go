package hashkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDJB2Deterministic(t *testing.T) {
	a := DJB2("http://example.test/index.html")
	b := DJB2("http://example.test/index.html")
	assert.Equal(t, a, b)
}

func TestDJB2Distinguishes(t *testing.T) {
	a := DJB2("http://example.test/a")
	b := DJB2("http://example.test/b")
	assert.NotEqual(t, a, b)
}

func TestDJB2KnownValue(t *testing.T) {
	var h uint64 = 5381
	for _, b := range []byte("ab") {
		h = h*33 + uint64(b)
	}
	assert.Equal(t, h, DJB2("ab"))
}
