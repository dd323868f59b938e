package httpproto

import (
	"strings"

	"github.com/mason-ferrell/uproxy/internal/httperr"
)

// Target is the parsed form of an absolute http:// URI (§4.2).
type Target struct {
	Host string // lower-cased, for blocklist compare
	Port string // decimal string, default "80"
	Path string // never empty; "/" when the original path was empty
}

// ParseURI splits an absolute "http://host[:port]/path" URI. Missing
// scheme or scheme != "http" is a 400; missing host is a 404 (§4.2).
func ParseURI(uri string) (*Target, error) {
	scheme, rest, ok := strings.Cut(uri, ":/")
	if !ok || scheme != "http" {
		return nil, httperr.ErrBadRequest
	}
	rest = strings.TrimPrefix(rest, "/")

	hostPort, path, _ := strings.Cut(rest, "/")
	// stop hostPort/path at the first whitespace or CR/LF, matching the
	// original request-line tokenisation rules.
	hostPort = cutAtWhitespace(hostPort)
	path = cutAtWhitespace(path)

	if hostPort == "" {
		return nil, httperr.ErrNotFound
	}

	host, port, hasPort := strings.Cut(hostPort, ":")
	if !hasPort {
		port = "80"
	}

	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &Target{
		Host: strings.ToLower(host),
		Port: port,
		Path: path,
	}, nil
}

func cutAtWhitespace(s string) string {
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
