package http

import (
	"testing"

	"github.com/freekieb7/pebble/buffer"
	"github.com/stretchr/testify/require"
)

func TestRequestLineParse(t *testing.T) {
	var line RequestLine
	input := []byte("GET /index.html?x=1 HTTP/1.1\r\nHost: x\r\n")

	require.Equal(t, MoreData, line.Parse(&input))
	require.Equal(t, MethodGet, line.Method)
	require.Equal(t, VersionHTTP11, line.Version)
	require.Equal(t, "/index.html?x=1", string(line.URI.AbsolutePath))
	require.Equal(t, "/index.html", string(line.URI.OnlyPath()))
	require.Equal(t, "1", string(line.URI.QueryPart().ValueFor([]byte("x"))))
	// The cursor stops right after the request line.
	require.Equal(t, "Host: x\r\n", string(input))
}

func TestRequestLineParseHTTP10(t *testing.T) {
	var line RequestLine
	input := []byte("POST /f HTTP/1.0\r\n")
	require.Equal(t, MoreData, line.Parse(&input))
	require.Equal(t, VersionHTTP10, line.Version)
}

func TestRequestLineRejects(t *testing.T) {
	bad := []string{
		"PATCH / HTTP/1.1\r\n",     // unknown method
		"GET  HTTP/1.1\r\n",        // missing target
		"GET / HTTP/2.0\r\n",       // unsupported version
		"GET / HTTP/1.2\r\n",       // unsupported minor
		"GET / HTTP/1.1",           // missing CRLF
		"GET/HTTP/1.1\r\n",         // missing spaces
		"GET / FTP/1.1\r\n",        // wrong protocol
	}
	for _, raw := range bad {
		var line RequestLine
		input := []byte(raw)
		require.Equal(t, InvalidRequest, line.Parse(&input), "input %q", raw)
	}
}

func TestRequestLineAsteriskForm(t *testing.T) {
	var line RequestLine
	input := []byte("OPTIONS * HTTP/1.1\r\n")
	require.Equal(t, MoreData, line.Parse(&input))
	require.True(t, line.URI.AppliesToAllResources())
	require.True(t, line.URI.Normalize())
	require.Equal(t, "*", string(line.URI.AbsolutePath))
}

func TestRequestURINormalizeInPlace(t *testing.T) {
	tv, _ := buffer.NewTransientVault(256)
	tv.Save([]byte("GET /a/../b/./c//d?x=1 HTTP/1.1\r\n"))

	var line RequestLine
	input := tv.Transient()
	require.Equal(t, MoreData, line.Parse(&input))
	require.True(t, line.URI.Normalize())
	require.Equal(t, "/b/c/d?x=1", string(line.URI.AbsolutePath))
	require.Equal(t, "/b/c/d", string(line.URI.OnlyPath()))

	// The normalized target still lives in the transient area; persist
	// it and refill the scratch completely.
	require.True(t, line.Persist(tv, tv.Size()))
	tv.Save([]byte("Header: noise\r\n\r\n"))
	require.Equal(t, "/b/c/d?x=1", string(line.URI.AbsolutePath))
	require.True(t, tv.Contains(line.URI.AbsolutePath))
}

func TestQueryIterate(t *testing.T) {
	q := Query{Raw: []byte("a=1&b&c=3")}
	iter := 0
	var key, value []byte

	require.True(t, q.Iterate(&iter, &key, &value))
	require.Equal(t, "a", string(key))
	require.Equal(t, "1", string(value))

	require.True(t, q.Iterate(&iter, &key, &value))
	require.Equal(t, "b", string(key))
	require.Empty(t, value)

	require.True(t, q.Iterate(&iter, &key, &value))
	require.Equal(t, "c", string(key))
	require.Equal(t, "3", string(value))

	require.False(t, q.Iterate(&iter, &key, &value))
}
