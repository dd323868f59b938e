// Package upstream implements §4.4: blocklist check, DNS resolution, and
// connecting to the origin server named by a parsed request target.
package upstream

import (
	"net"
	"time"

	"github.com/mason-ferrell/uproxy/internal/httperr"
)

// BlockList answers "is host blocked?" (the external collaborator named in
// spec §1).
type BlockList interface {
	Blocked(host string) bool
}

// Connector dials upstream hosts, honoring a blocklist.
type Connector struct {
	blocked BlockList
	dialer  *net.Dialer
}

func New(blocked BlockList) *Connector {
	return &Connector{
		blocked: blocked,
		dialer:  &net.Dialer{Timeout: 30 * time.Second},
	}
}

// Dial implements §4.4: blocklist check (403), resolve + connect (404 on
// any failure). net.Dialer.Dial resolves AF_INET and iterates candidate
// addresses internally, connecting to the first that succeeds.
func (c *Connector) Dial(host, port string) (net.Conn, error) {
	if c.blocked != nil && c.blocked.Blocked(host) {
		return nil, httperr.ErrForbidden
	}

	addr := net.JoinHostPort(host, port)
	conn, err := c.dialer.Dial("tcp4", addr)
	if err != nil {
		return nil, httperr.ErrNotFound.WithCause(err)
	}
	return conn, nil
}
