package upstream

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBlockList map[string]struct{}

func (s staticBlockList) Blocked(host string) bool {
	_, ok := s[host]
	return ok
}

func TestDialBlockedHostIsForbidden(t *testing.T) {
	c := New(staticBlockList{"evil.test": {}})
	_, err := c.Dial("evil.test", "80")
	require.Error(t, err)
}

func TestDialUnreachableHostIsNotFound(t *testing.T) {
	c := New(nil)
	// nothing listens on loopback port 1, so the connect is refused.
	_, err := c.Dial("127.0.0.1", "1")
	require.Error(t, err)
}

func TestDialReachesListener(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	c := New(nil)
	conn, err := c.Dial(host, port)
	require.NoError(t, err)
	assert.NotNil(t, conn)
	conn.Close()
}
