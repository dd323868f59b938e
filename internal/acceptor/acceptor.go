// Package acceptor implements §2/§6: a listening TCP socket that spawns a
// worker goroutine per accepted connection. Accept failures are logged and
// the loop continues (§7); startup (bind/listen) failures are fatal to the
// caller.
package acceptor

import (
	"context"
	"errors"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/mason-ferrell/uproxy/internal/log"
)

// Handler processes one accepted connection; it owns closing conn.
type Handler func(conn net.Conn)

// Acceptor owns the listening socket.
type Acceptor struct {
	ln net.Listener
}

// Listen binds addr (e.g. ":8080"). Bind/listen failure is returned for the
// caller to treat as fatal per §7.
func Listen(addr string) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Acceptor{ln: ln}, nil
}

// Addr returns the bound address.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Close stops accepting new connections.
func (a *Acceptor) Close() error { return a.ln.Close() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed, dispatching each to handle on its own goroutine. Worker
// goroutines are tracked through an errgroup purely for orderly shutdown
// bookkeeping (golang.org/x/sync, the donor's own declared dependency for
// goroutine lifecycle management) — a worker's own errors never propagate
// past it (§7), so the group's wait error is always nil.
func (a *Acceptor) Serve(ctx context.Context, handle Handler) error {
	group, _ := errgroup.WithContext(ctx)

	go func() {
		<-ctx.Done()
		_ = a.ln.Close()
	}()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return group.Wait()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return group.Wait()
			}
			log.Warnf("acceptor: accept failed: %v", err)
			continue
		}

		group.Go(func() error {
			handle(conn)
			return nil
		})
	}
}
