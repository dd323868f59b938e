// Package fetcher implements §4.5: rewriting the client's request into
// origin form and streaming the upstream response back to the client,
// optionally teeing it into a cache writer handle. The proxy is
// byte-transparent over the response body — no HTTP framing is parsed
// here, only the request line and header hygiene on the way out.
package fetcher

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strings"

	"github.com/mason-ferrell/uproxy/internal/httpproto"
)

// BufSize matches the client-facing recv size (§4.1); the streaming loop
// reads upstream in the same chunk size.
const BufSize = httpproto.BufSize

// CacheWriter accepts the streamed response bytes for caching. A dry
// writer (non-cacheable URI) still implements this but drops every chunk.
type CacheWriter interface {
	Append(p []byte)
}

// SendRequest rewrites req into origin form and writes it to upstream:
//
//	GET /<path> <version>\r\n
//	<forwarded headers, Connection/Proxy-Connection hygiene applied>
//	\r\n
func SendRequest(upstream net.Conn, req *httpproto.Request, path string) error {
	version := req.Version
	if version == "" {
		version = "HTTP/1.1"
	}

	var out bytes.Buffer
	out.WriteString("GET ")
	out.WriteString(path)
	out.WriteByte(' ')
	out.WriteString(version)
	out.WriteString("\r\n")

	for _, line := range headerLines(req.Raw) {
		if skipHeader(line) {
			continue
		}
		if rewritten, ok := rewriteKeepAlive(line); ok {
			out.WriteString(rewritten)
		} else {
			out.WriteString(line)
		}
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n")

	return writeFull(upstream, out.Bytes())
}

// headerLines returns the header block of the original request (everything
// after the request line), one line per element, CRLF stripped, stopping
// at the blank line that terminates the header block.
func headerLines(raw []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, BufSize), BufSize)

	var lines []string
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			continue // skip the request line itself
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// skipHeader reports whether line is a Proxy-Connection: keep-alive
// header, which is dropped rather than forwarded. A Connection: keep-alive
// header is not skipped here; rewriteKeepAlive below rewrites it to close.
func skipHeader(line string) bool {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	return strings.EqualFold(name, "Proxy-Connection") && strings.EqualFold(value, "keep-alive")
}

// rewriteKeepAlive substitutes "Connection: close" for "Connection:
// keep-alive" (§4.5); other headers pass through unchanged.
func rewriteKeepAlive(line string) (string, bool) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return line, false
	}
	if strings.EqualFold(strings.TrimSpace(name), "Connection") &&
		strings.EqualFold(strings.TrimSpace(value), "keep-alive") {
		return "Connection: close", true
	}
	return line, false
}

// writeFull writes the entirety of p, resending the tail on a short write.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// StreamBody copies a cache hit's body to the client in BufSize chunks,
// handling short writes the same way Stream does for a live fetch.
func StreamBody(client io.Writer, body io.Reader) (int64, error) {
	buf := make([]byte, BufSize)
	var total int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if err := writeFull(client, buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if rerr != nil {
			if rerr == io.EOF {
				return total, nil
			}
			return total, rerr
		}
	}
}

// Stream reads the upstream response in BufSize chunks, forwarding each
// chunk to the client (handling short writes) and, if cw is non-nil,
// appending it to the cache. It returns the total bytes forwarded and the
// first client-write error encountered, if any; an upstream read error is
// treated as EOF (§4.5).
func Stream(client io.Writer, upstreamConn net.Conn, cw CacheWriter) (int64, error) {
	buf := make([]byte, BufSize)
	var total int64

	for {
		n, rerr := upstreamConn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if err := writeFull(client, chunk); err != nil {
				return total, err
			}
			total += int64(n)
			if cw != nil {
				cw.Append(chunk)
			}
		}
		if rerr != nil {
			// EOF or any other upstream read error ends the stream.
			return total, nil
		}
	}
}
