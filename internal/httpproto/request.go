// Package httpproto implements the single-request parser (§4.1) and the
// absolute-URI splitter (§4.2). Both parse into borrowed slices of the
// original buffer rather than mutating it in place, so the verbatim bytes
// stay available for forwarding upstream — the spec's Design Notes (§9)
// call out destructive tokenisation as the anti-pattern to avoid.
package httpproto

import (
	"bytes"

	"github.com/mason-ferrell/uproxy/internal/httperr"
)

// BufSize is the maximum single-recv request size (§4.1).
const BufSize = 4096

// Request is a parsed single HTTP request line plus the verbatim original
// bytes, which are forwarded upstream unparsed (only re-framed, see the
// fetcher's request rewriter).
type Request struct {
	Method  string
	Target  string
	Version string
	Raw     []byte // the full, untouched buffer as received from the client
}

var allowedVersions = map[string]struct{}{
	"HTTP/1.0": {},
	"HTTP/1.1": {},
}

// Parse parses the request line of buf (the first BufSize-or-fewer bytes
// read from the client socket in a single recv). If filled is true, buf was
// exactly BufSize bytes with no room for a terminator and is rejected as a
// truncated request.
func Parse(buf []byte, filled bool) (*Request, error) {
	if filled {
		return nil, httperr.ErrBadRequest
	}

	raw := make([]byte, len(buf))
	copy(raw, buf)

	line := buf
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimRight(line, "\r")

	fields := bytes.Fields(line)
	if len(fields) < 3 {
		return nil, httperr.ErrBadRequest
	}

	method := string(fields[0])
	target := string(fields[1])
	version := string(fields[2])

	switch method {
	case "HEAD", "POST", "PUT":
		return nil, httperr.ErrMethodNotAllowed
	case "GET":
		// continue
	default:
		return nil, httperr.ErrBadRequest
	}

	if _, ok := allowedVersions[version]; !ok {
		return nil, httperr.ErrVersionNotSupported
	}

	return &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Raw:     raw,
	}, nil
}
