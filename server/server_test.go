package server

import (
	"bytes"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/socket"
	"github.com/freekieb7/pebble/telemetry"
)

// testConn wires a client slot to a socketpair so tests can feed raw
// request bytes and read back the raw response.
type testConn struct {
	c    *Client
	peer socket.Socket
}

func newTestConn(t *testing.T, bufferSize int) *testConn {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	require.NoError(t, err)

	c, err := NewClient(bufferSize, telemetry.NopLogger(), false)
	require.NoError(t, err)
	c.Socket.Adopt(fds[0])

	tc := &testConn{c: c}
	tc.peer = socket.New()
	tc.peer.Adopt(fds[1])
	t.Cleanup(func() {
		tc.c.Socket.Reset()
		tc.peer.Reset()
	})
	return tc
}

func (tc *testConn) send(t *testing.T, data string) {
	t.Helper()
	_, err := tc.peer.Send([]byte(data))
	require.NoError(t, err)
}

// drive pumps received bytes through the state machine and the router
// until the request settles, mirroring one client's share of the server
// loop.
func (tc *testConn) drive(t *testing.T, router *Router) ClientState {
	t.Helper()
	for i := 0; i < 64; i++ {
		free := tc.c.Recv.Tail()
		if len(free) > 0 {
			n, err := tc.c.Socket.Recv(free)
			require.NoError(t, err)
			tc.c.Recv.Stored(n)
		}
		if !tc.c.Parse() {
			return StateError
		}
		if tc.c.Status() <= StatusRecvHeaders {
			continue
		}
		switch state := router.Process(tc.c); state {
		case StateNeedRefill, StateProcessing:
			continue
		default:
			return state
		}
	}
	t.Fatal("request did not settle")
	return StateError
}

func (tc *testConn) response(t *testing.T) string {
	t.Helper()
	require.NoError(t, syscall.SetNonblock(tc.peer.Fd(), true))
	var out bytes.Buffer
	buf := make([]byte, 4096)
	for i := 0; i < 50; i++ {
		n, err := syscall.Read(tc.peer.Fd(), buf)
		if n > 0 {
			out.Write(buf[:n])
			continue
		}
		if err == syscall.EAGAIN {
			if out.Len() > 0 {
				break
			}
			time.Sleep(time.Millisecond)
			continue
		}
		break
	}
	return out.String()
}

func okRouter(path string) *Router {
	return NewRouter().Handle(http.MaskOf(http.MethodGet), path,
		func(c *Client, headers *http.HeaderSet) bool {
			return c.SendAnswer(NewCodeAnswer(http.CodeOk), false)
		})
}

func TestSmallestGet(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.send(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")

	require.Equal(t, StateDone, tc.drive(t, okRouter("/")))
	require.Equal(t,
		"HTTP/1.1 200 Ok\r\n\r\nConnection:close\r\nContent-Length:0\r\n\r\n",
		tc.response(t))
}

func TestUnknownPathAnswers404(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.send(t, "GET /missing HTTP/1.1\r\nHost:x\r\n\r\n")

	require.Equal(t, StateError, tc.drive(t, okRouter("/only")))
	require.True(t, strings.HasPrefix(tc.response(t), "HTTP/1.1 404 Not Found\r\n\r\n"))
}

func TestOversizeHeaderAnswers413(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.send(t, "GET / HTTP/1.1\r\nX-Stuff: "+strings.Repeat("a", 10*1024)+"\r\n\r\n")

	require.Equal(t, StateError, tc.drive(t, okRouter("/")))
	require.True(t, strings.HasPrefix(tc.response(t), "HTTP/1.1 413 Entity Too Large\r\n\r\n"))
}

func TestFormPost(t *testing.T) {
	var captured string
	router := NewRouter().Handle(http.MaskOf(http.MethodPost), "/f",
		func(c *Client, headers *http.HeaderSet) bool {
			form := NewFormPost("name")
			if !c.FetchContent(headers, form) {
				return false
			}
			captured = string(form.Value("name"))
			return c.SendAnswer(NewCodeAnswer(http.CodeOk), false)
		})

	tc := newTestConn(t, 1024)
	tc.send(t, "POST /f HTTP/1.1\r\nHost:x\r\n"+
		"Content-Type:application/x-www-form-urlencoded\r\n"+
		"Content-Length:11\r\n\r\n"+
		"name=alice&")

	require.Equal(t, StateDone, tc.drive(t, router))
	require.Equal(t, "alice", captured)
}

func TestChunkedDownload(t *testing.T) {
	pieces := [][]byte{[]byte("ab"), []byte("cde"), nil}
	i := 0
	router := NewRouter().Handle(http.MaskOf(http.MethodGet), "/stream",
		func(c *Client, headers *http.HeaderSet) bool {
			next := func() []byte {
				p := pieces[i]
				i++
				return p
			}
			return c.SendAnswer(NewCaptureAnswer(http.CodeOk, nil, next), false)
		})

	tc := newTestConn(t, 1024)
	tc.send(t, "GET /stream HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc.drive(t, router))

	resp := tc.response(t)
	parts := strings.SplitN(resp, "Transfer-Encoding:chunked\r\n\r\n", 2)
	require.Len(t, parts, 2, "response %q", resp)
	require.Equal(t, "2\r\nab\r\n3\r\ncde\r\n0\r\n", parts[1])
}

func TestPathNormalizationReachesRouter(t *testing.T) {
	var seenPath, seenQuery string
	router := NewRouter().Handle(http.MaskOf(http.MethodGet), "/b",
		func(c *Client, headers *http.HeaderSet) bool {
			seenPath = string(c.RequestedPath())
			seenQuery = string(c.ReqLine.URI.QueryPart().Raw)
			return c.SendAnswer(NewCodeAnswer(http.CodeOk), false)
		})

	tc := newTestConn(t, 1024)
	tc.send(t, "GET /a/../b/./c//d?x=1 HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc.drive(t, router))
	require.Equal(t, "/b/c/d", seenPath)
	require.Equal(t, "x=1", seenQuery)
}

func TestHeaderRefillPersistsParsedValues(t *testing.T) {
	var host, agent string
	var length uint64
	router := NewRouter().Handle(http.MaskOf(http.MethodGet), "/p",
		func(c *Client, headers *http.HeaderSet) bool {
			host = string(headers.GetString(http.HeaderHost))
			agent = string(headers.GetString(http.HeaderUserAgent))
			length, _ = headers.GetUint(http.HeaderContentLength)
			return c.SendAnswer(NewCodeAnswer(http.CodeOk), false)
		}, http.HeaderHost, http.HeaderUserAgent, http.HeaderContentLength)

	// A 128-byte buffer forces several refill rounds through the vault.
	tc := newTestConn(t, 128)
	tc.send(t, "GET /p HTTP/1.1\r\n"+
		"Host: device.local\r\n"+
		"X-Noise: "+strings.Repeat("n", 80)+"\r\n"+
		"User-Agent: tiny/1.0\r\n"+
		"Content-Length: 0\r\n"+
		"\r\n")

	require.Equal(t, StateDone, tc.drive(t, router))
	require.Equal(t, "device.local", host)
	require.Equal(t, "tiny/1.0", agent)
	require.Equal(t, uint64(0), length)
}

func TestBadRequestLine(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.send(t, "NONSENSE\r\n\r\n")
	require.Equal(t, StateError, tc.drive(t, okRouter("/")))
	require.True(t, strings.HasPrefix(tc.response(t), "HTTP/1.1 400 Bad Request\r\n\r\n"))
}

func TestHeadOmitsBody(t *testing.T) {
	router := NewRouter().Handle(http.MaskOf(http.MethodGet, http.MethodHead), "/",
		func(c *Client, headers *http.HeaderSet) bool {
			return c.SendAnswer(NewSimpleAnswer(http.CodeOk, http.MIMETextPlain, []byte("payload")), false)
		})

	tc := newTestConn(t, 1024)
	tc.send(t, "HEAD / HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc.drive(t, router))

	resp := tc.response(t)
	require.Contains(t, resp, "Content-Length:7\r\n\r\n")
	require.True(t, strings.HasSuffix(resp, "Content-Length:7\r\n\r\n"), "body must be omitted: %q", resp)
}

func TestSimpleAnswerCarriesContentType(t *testing.T) {
	router := NewRouter().Handle(http.MaskOf(http.MethodGet), "/",
		func(c *Client, headers *http.HeaderSet) bool {
			return c.SendAnswer(NewSimpleAnswer(http.CodeOk, http.MIMETextHTML, []byte("<p>hi</p>")), false)
		})

	tc := newTestConn(t, 1024)
	tc.send(t, "GET / HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc.drive(t, router))

	resp := tc.response(t)
	require.Contains(t, resp, "Content-Type:text/html\r\n")
	require.Contains(t, resp, "Content-Length:9\r\n\r\n<p>hi</p>")
}

func TestKeepAliveSkipsCloseHeader(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.c.BeginSession(255)
	tc.send(t, "GET / HTTP/1.1\r\nHost:x\r\n\r\n")

	require.Equal(t, StateDone, tc.drive(t, okRouter("/")))
	resp := tc.response(t)
	require.NotContains(t, resp, "Connection:close")
	require.Greater(t, tc.c.TTL(), 0)
}

func TestRouterFirstMatchWins(t *testing.T) {
	var hit string
	mk := func(name string) Handler {
		return func(c *Client, headers *http.HeaderSet) bool {
			hit = name
			return c.SendAnswer(NewCodeAnswer(http.CodeOk), false)
		}
	}
	router := NewRouter().
		Handle(http.MaskOf(http.MethodGet), "/a/b", mk("specific")).
		Handle(http.MaskOf(http.MethodGet), "/a", mk("prefix")).
		Handle(http.MaskOf(http.MethodGet), "", mk("wildcard"))

	tc := newTestConn(t, 1024)
	tc.send(t, "GET /a/b/c HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc.drive(t, router))
	require.Equal(t, "specific", hit)

	tc2 := newTestConn(t, 1024)
	tc2.send(t, "GET /z HTTP/1.1\r\nHost:x\r\n\r\n")
	require.Equal(t, StateDone, tc2.drive(t, router))
	require.Equal(t, "wildcard", hit)
}

func TestMethodMaskGatesRoute(t *testing.T) {
	tc := newTestConn(t, 1024)
	tc.send(t, "POST / HTTP/1.1\r\nHost:x\r\nContent-Length:0\r\n\r\n")
	require.Equal(t, StateError, tc.drive(t, okRouter("/")))
	require.True(t, strings.HasPrefix(tc.response(t), "HTTP/1.1 404 Not Found"))
}

func TestStreamedBodySink(t *testing.T) {
	var sink bytes.Buffer
	router := NewRouter().Handle(http.MaskOf(http.MethodPut), "/upload",
		func(c *Client, headers *http.HeaderSet) bool {
			if !c.FetchContent(headers, writerSink{&sink}) {
				return false
			}
			return c.SendAnswer(NewCodeAnswer(http.CodeCreated), false)
		})

	body := strings.Repeat("x", 2000)
	tc := newTestConn(t, 1024)
	tc.send(t, "PUT /upload HTTP/1.1\r\nHost:x\r\n"+
		"Content-Type:application/octet-stream\r\n"+
		"Content-Length:2000\r\n\r\n"+body)

	require.Equal(t, StateDone, tc.drive(t, router))
	require.Equal(t, body, sink.String())
	require.True(t, strings.HasPrefix(tc.response(t), "HTTP/1.1 201 Created"))
}

type writerSink struct{ buf *bytes.Buffer }

func (w writerSink) Write(b []byte) int {
	n, _ := w.buf.Write(b)
	return n
}
