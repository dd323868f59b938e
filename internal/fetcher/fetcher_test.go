package fetcher

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mason-ferrell/uproxy/internal/httpproto"
)

func TestSendRequestRewritesKeepAliveAndDropsProxyConnection(t *testing.T) {
	raw := []byte("GET http://example.test/index.html HTTP/1.1\r\n" +
		"Host: example.test\r\n" +
		"Proxy-Connection: keep-alive\r\n" +
		"Connection: keep-alive\r\n" +
		"\r\n")
	req, err := httpproto.Parse(raw, false)
	require.NoError(t, err)

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- SendRequest(client, req, "/index.html") }()

	buf := make([]byte, 4096)
	n, err := server.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)

	got := string(buf[:n])
	assert.Contains(t, got, "GET /index.html HTTP/1.1\r\n")
	assert.Contains(t, got, "Host: example.test\r\n")
	assert.Contains(t, got, "Connection: close\r\n")
	assert.NotContains(t, got, "Proxy-Connection")
	assert.NotContains(t, got, "keep-alive")
}

type recordingCacheWriter struct{ chunks [][]byte }

func (r *recordingCacheWriter) Append(p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)
	r.chunks = append(r.chunks, cp)
}

func TestStreamForwardsAndCaches(t *testing.T) {
	upServer, upClient := net.Pipe()
	defer upClient.Close()

	go func() {
		_, _ = upServer.Write([]byte("HTTP/1.1 200 OK\r\n\r\nbody"))
		upServer.Close()
	}()

	var out fakeWriter
	cw := &recordingCacheWriter{}

	n, err := Stream(&out, upClient, cw)
	require.NoError(t, err)
	assert.Equal(t, int64(len("HTTP/1.1 200 OK\r\n\r\nbody")), n)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\nbody", out.String())
	assert.NotEmpty(t, cw.chunks)
}

type fakeWriter struct{ buf []byte }

func (f *fakeWriter) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

func (f *fakeWriter) String() string { return string(f.buf) }

var _ io.Writer = (*fakeWriter)(nil)
