// Package worker implements the per-connection pipeline of §4.6: parse,
// look up in cache, and either serve the hit or fetch-and-populate on a
// miss.
package worker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/mason-ferrell/uproxy/internal/cache"
	"github.com/mason-ferrell/uproxy/internal/fetcher"
	"github.com/mason-ferrell/uproxy/internal/httperr"
	"github.com/mason-ferrell/uproxy/internal/httpproto"
	"github.com/mason-ferrell/uproxy/internal/log"
	"github.com/mason-ferrell/uproxy/internal/metrics"
	"github.com/mason-ferrell/uproxy/internal/upstream"
)

// Worker binds the request parser, cache store, upstream connector and
// fetcher into one per-connection pipeline.
type Worker struct {
	Store     *cache.Store
	Connector *upstream.Connector
	TTL       time.Duration
}

// Handle runs the full pipeline for one accepted connection, per §4.6.
// It never panics past itself: a recovered panic is logged and the
// connection is simply dropped, mirroring the donor's per-request recovery
// middleware reimplemented directly here since there is no net/http
// middleware chain in a raw-socket proxy.
func (w *Worker) Handle(conn net.Conn) {
	ctx := log.WithRequestID(context.Background(), uuid.NewString())
	clog := log.Context(ctx)

	defer func() {
		if r := recover(); r != nil {
			clog.Errorf("worker: recovered from panic: %v", r)
		}
		_ = conn.Close()
	}()

	buf := make([]byte, httpproto.BufSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}
	filled := n == len(buf) && buf[len(buf)-1] != 0

	req, perr := httpproto.Parse(buf[:n], filled)
	if perr != nil {
		w.reject(conn, "", perr)
		metrics.RequestTotal(statusLabel(perr))
		return
	}

	w.serve(clog, conn, req)
}

func (w *Worker) serve(clog *log.Helper, conn net.Conn, req *httpproto.Request) {
	w.Store.LockSearch()

	if w.TTL > 0 {
		if h, ok := w.Store.Lookup(req.Target, w.TTL); ok {
			w.Store.UnlockSearch()
			metrics.RequestTotal("hit")
			n, err := fetcher.StreamBody(conn, h.Body())
			h.Release()
			if err != nil {
				clog.Debugf("worker: serving cache hit: %v", err)
			}
			metrics.BytesForwarded(n)
			return
		}
	}

	// Miss: parse the target URI, connect upstream, and begin a cache
	// write before releasing search_mutex, so no concurrent worker for
	// the same URI decides to fetch too (§5).
	tgt, terr := httpproto.ParseURI(req.Target)
	if terr != nil {
		w.Store.UnlockSearch()
		w.reject(conn, req.Version, terr)
		metrics.RequestTotal(statusLabel(terr))
		return
	}

	upstreamConn, cerr := w.Connector.Dial(tgt.Host, tgt.Port)
	if cerr != nil {
		w.Store.UnlockSearch()
		w.reject(conn, req.Version, cerr)
		metrics.RequestTotal(statusLabel(cerr))
		return
	}
	defer upstreamConn.Close()
	metrics.UpstreamConnect()

	writer := w.Store.OpenForWrite(req.Target)
	w.Store.UnlockSearch()
	defer writer.Close()

	if err := fetcher.SendRequest(upstreamConn, req, tgt.Path); err != nil {
		clog.Debugf("worker: send upstream request: %v", err)
		metrics.RequestTotal("upstream_error")
		return
	}

	n, err := fetcher.Stream(conn, upstreamConn, writer)
	metrics.BytesForwarded(n)
	if err != nil {
		clog.Debugf("worker: streaming response: %v", err)
		metrics.RequestTotal("upstream_error")
		return
	}
	metrics.RequestTotal("miss")
}

// reject writes the §7 status-line-only error response. version falls
// back to HTTP/1.1 when the request's own version is unknown or absent.
func (w *Worker) reject(conn net.Conn, version string, err error) {
	if version == "" {
		version = "HTTP/1.1"
	}
	he, ok := asHTTPError(err)
	if !ok {
		he = httperr.ErrBadRequest
	}
	line := fmt.Sprintf("%s %d %s\r\n\r\n", version, he.Code, he.Reason)
	_, _ = conn.Write([]byte(line))
}

func asHTTPError(err error) (*httperr.Error, bool) {
	he, ok := err.(*httperr.Error)
	return he, ok
}

func statusLabel(err error) string {
	he, ok := asHTTPError(err)
	if !ok {
		return "bad_request"
	}
	switch he.Code {
	case 403:
		return "forbidden"
	case 404:
		return "not_found"
	case 405:
		return "method_not_allowed"
	case 505:
		return "version_not_supported"
	default:
		return "bad_request"
	}
}
