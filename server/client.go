package server

import (
	"bytes"
	"log/slog"

	"github.com/google/uuid"

	"github.com/freekieb7/pebble/buffer"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/socket"
	"github.com/freekieb7/pebble/stream"
)

// ClientState is what one router pass reports back to the server loop.
type ClientState int8

const (
	StateError ClientState = iota
	StateProcessing
	StateNeedRefill
	StateDone
)

// ParsingStatus tracks how far a client's current request got.
type ParsingStatus uint8

const (
	StatusInvalid ParsingStatus = iota
	StatusReqLine
	StatusRecvHeaders
	StatusNeedRefillHeaders
	StatusHeadersDone
	StatusReqDone
)

var crlf = []byte("\r\n")
var endOfHeaders = []byte("\r\n\r\n")

// minHeaderRoom is the least transient space that still lets header
// parsing make progress once the vault has eaten the rest.
const minHeaderRoom = 64

// Client is one connection slot. All its request state lives in the one
// transient/vault buffer; the slot is in use exactly while its socket is
// valid.
type Client struct {
	Socket  socket.Socket
	Recv    *buffer.TransientVault
	ReqLine http.RequestLine

	status           ParsingStatus
	persistVaultSize int
	ttl              int
	answerLength     int
	lastCode         http.Code
	id               uuid.UUID
	log              *slog.Logger
	rfcStatusLine    bool
}

// NewClient carves out the slot's buffer. The logger may not be nil.
func NewClient(bufferSize int, log *slog.Logger, rfcStatusLine bool) (*Client, error) {
	tv, err := buffer.NewTransientVault(bufferSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		Socket:        socket.New(),
		Recv:          tv,
		log:           log,
		rfcStatusLine: rfcStatusLine,
	}, nil
}

// Status exposes the parsing progress to the router and server loop.
func (c *Client) Status() ParsingStatus { return c.status }

// IsValid reports whether the slot is in use.
func (c *Client) IsValid() bool { return c.Socket.IsValid() }

// TTL is the remaining keep-alive budget in loop ticks.
func (c *Client) TTL() int { return c.ttl }

// RestartTTL rearms the keep-alive budget, Age burns one tick of it.
func (c *Client) RestartTTL(ticks int) { c.ttl = ticks }

func (c *Client) Age() {
	if c.ttl > 0 {
		c.ttl--
	}
}

// ForceClose makes the current answer carry "Connection:close" and the
// loop drop the connection afterwards.
func (c *Client) ForceClose() { c.ttl = 0 }

// LastCode is the status of the most recent answer, for accounting.
func (c *Client) LastCode() http.Code { return c.lastCode }

// AnswerLength is the body length of the most recent answer.
func (c *Client) AnswerLength() int { return c.answerLength }

// BeginSession stamps a fresh connection.
func (c *Client) BeginSession(ttl int) {
	c.id = uuid.New()
	c.ttl = ttl
}

// ResetSlot drops the connection and clears everything for reuse.
func (c *Client) ResetSlot() {
	c.Recv.Reset()
	c.ReqLine.Reset()
	c.status = StatusInvalid
	c.Socket.Reset()
	c.persistVaultSize = 0
	c.answerLength = 0
	c.ttl = 0
}

// ResetForNextRequest rewinds the parsing state while keeping the
// connection open (keep-alive round).
func (c *Client) ResetForNextRequest() {
	c.Recv.Reset()
	c.ReqLine.Reset()
	c.status = StatusInvalid
	c.persistVaultSize = 0
	c.answerLength = 0
}

// HasPersistedHeaders reports whether a serialized header set sits in
// the vault above the request-line watermark.
func (c *Client) HasPersistedHeaders() bool {
	return c.Recv.VaultSize() > c.persistVaultSize
}

// RouteFound reloads a persisted header set when the route resumes
// after a refill, then frees the vault blob for new persisted strings.
func (c *Client) RouteFound(set *http.HeaderSet) {
	if c.HasPersistedHeaders() {
		set.LoadFromVault(c.Recv)
		c.Recv.ResetVault(c.persistVaultSize)
	}
}

// SaveHeaders serializes the set into the vault before the transient
// area is handed back to the socket for a refill.
func (c *Client) SaveHeaders(set *http.HeaderSet) ClientState {
	if c.status == StatusNeedRefillHeaders {
		c.persistVaultSize = c.Recv.VaultSize()
		if !set.SaveInVault(c.Recv) {
			c.CloseWithError(http.CodeInternalServerError)
			return StateError
		}
	}
	return StateNeedRefill
}

// Parse advances the request-line / header-block state machine over
// whatever the transient area holds. It returns false when the
// connection must be dropped (an error answer was already sent).
func (c *Client) Parse() bool {
	if c.status == StatusInvalid {
		c.status = StatusReqLine
	}
	input := c.Recv.Transient()

	if c.status == StatusReqLine {
		if !bytes.Contains(input, crlf) {
			if c.Recv.FreeSize() > 0 {
				return true
			}
			return c.CloseWithError(http.CodeEntityTooLarge)
		}
		cursor := input
		if st := c.ReqLine.Parse(&cursor); st != http.MoreData {
			return c.CloseWithError(http.CodeBadRequest)
		}
		// There is no point in parsing headers before a route matched:
		// the route knows which headers matter.
		c.status = StatusRecvHeaders
		if !c.ReqLine.URI.Normalize() {
			return c.CloseWithError(http.CodeBadRequest)
		}
		if !c.ReqLine.Persist(c.Recv, len(input)-len(cursor)) {
			return c.CloseWithError(http.CodeInternalServerError)
		}
		c.persistVaultSize = c.Recv.VaultSize()
		input = c.Recv.Transient()
	}

	if c.status == StatusRecvHeaders || c.status == StatusNeedRefillHeaders {
		if bytes.Contains(input, endOfHeaders) || bytes.Equal(input, crlf) {
			c.status = StatusHeadersDone
			return true
		}
		if c.Recv.FreeSize() > 0 {
			return true
		}
		if c.Recv.Size() < minHeaderRoom {
			// The vault ate so much that the transient area cannot hold
			// a parseable line anymore.
			return c.CloseWithError(http.CodeEntityTooLarge)
		}
		c.status = StatusNeedRefillHeaders
	}
	return true
}

// RequestedPath is the normalized path without the query part.
func (c *Client) RequestedPath() []byte { return c.ReqLine.URI.OnlyPath() }

func (c *Client) sendStatus(code http.Code) bool {
	var line [64]byte
	tb := buffer.TrackedBuffer{Buf: line[:]}
	tb.SaveString("HTTP/1.1 ")
	var digits [20]byte
	tb.Save(digits[:http.AppendUint(digits[:], uint64(code))])
	tb.SaveString(" ")
	tb.SaveString(code.Reason())
	tb.SaveString("\r\n")
	if !c.rfcStatusLine {
		// Historic wire format: a blank line right after the status,
		// headers follow it.
		tb.SaveString("\r\n")
	}
	c.lastCode = code
	_, err := c.Socket.Send(tb.Bytes())
	return err == nil
}

func (c *Client) sendSize(length int) bool {
	var buf [40]byte
	tb := buffer.TrackedBuffer{Buf: buf[:]}
	tb.SaveString("Content-Length:")
	var digits [20]byte
	tb.Save(digits[:http.AppendUint(digits[:], uint64(length))])
	tb.SaveString("\r\n\r\n")
	_, err := c.Socket.Send(tb.Bytes())
	return err == nil
}

// SendAnswer emits a complete response: status line, connection policy,
// the answer's headers, then the body under the answer's length policy.
func (c *Client) SendAnswer(a Answer, close bool) bool {
	if close {
		c.ttl = 0
	}
	if !c.sendStatus(a.Code()) {
		return false
	}

	// The URI lives in the vault which is about to be reused; keep a
	// copy for the log line.
	uri := string(c.ReqLine.URI.AbsolutePath)

	// The transient area becomes the staging buffer for headers and
	// body chunks from here on.
	c.Recv.ResetTransient(0)
	c.Recv.ResetVault(0)

	if c.ttl <= 0 && !a.HasHeader(http.HeaderConnection) {
		if _, err := c.Socket.Send([]byte("Connection:close\r\n")); err != nil {
			return false
		}
	}

	tb := buffer.TrackedBuffer{Buf: c.Recv.Tail()}
	if !a.WriteHeaders(&tb) {
		return false
	}
	if tb.Used > 0 {
		if _, err := c.Socket.Send(tb.Bytes()); err != nil {
			return false
		}
	}

	c.answerLength = 0
	in := a.InputStream()
	switch {
	case in != nil && in.Size() > 0:
		c.answerLength = in.Size()
		if !c.sendSize(c.answerLength) {
			return false
		}
		if c.ReqLine.Method != http.MethodHead {
			buf := c.Recv.Tail()
			for {
				n := in.Read(buf)
				if n == 0 {
					break
				}
				if _, err := c.Socket.Send(buf[:n]); err != nil {
					return false
				}
			}
		}
	case in != nil && in.HasContent() && c.ReqLine.Method != http.MethodHead:
		if !a.HasHeader(http.HeaderTransferEncoding) {
			if _, err := c.Socket.Send([]byte("Transfer-Encoding:chunked\r\n\r\n")); err != nil {
				return false
			}
		} else if _, err := c.Socket.Send(crlf); err != nil {
			return false
		}
		total, ok := a.SendContent(c)
		if !ok {
			return false
		}
		c.answerLength = total
	default:
		if !c.sendSize(0) {
			return false
		}
	}

	c.log.Info("answered",
		slog.String("client", c.Socket.Addr),
		slog.String("conn", c.id.String()),
		slog.String("path", uri),
		slog.Int("length", c.answerLength),
		slog.Int("code", int(a.Code())),
		slog.Bool("close", c.ttl <= 0))

	c.status = StatusReqDone
	return true
}

// Reply sends a plain-text answer, persisting the message first when it
// still lives in the receive buffer.
func (c *Client) Reply(code http.Code, msg []byte, close bool) bool {
	if c.Recv.Contains(msg) {
		if !buffer.PersistString(&msg, c.Recv, c.Recv.Size()) {
			return false
		}
	}
	return c.SendAnswer(NewSimpleAnswer(code, http.MIMETextPlain, msg), close)
}

// CloseWithError answers with a bare status code and reports the
// connection as dead. It always returns false so parse paths can bail
// out with "return c.CloseWithError(...)".
func (c *Client) CloseWithError(code http.Code) bool {
	c.SendAnswer(NewCodeAnswer(code), true)
	return false
}

// FetchContent consumes the request body after the headers are done.
// A *FormPost consumer takes an eagerly buffered form-urlencoded body;
// any stream.Output consumer takes a streamed copy of the raw body.
// Multipart bodies are out of scope and rejected.
func (c *Client) FetchContent(set *http.HeaderSet, consumer any) bool {
	if c.status != StatusHeadersDone {
		return false
	}
	expLength64, _ := set.GetUint(http.HeaderContentLength)
	expLength := int(expLength64)

	switch http.MIMEType(set.GetEnum(http.HeaderContentType)) {
	case http.MIMEMultipartFormData:
		return false
	case http.MIMEApplicationFormURLEncoded:
		form, ok := consumer.(*FormPost)
		if !ok {
			return false
		}
		if c.Recv.MaxSize() < expLength {
			// The request can never fit, bail out instead of looping.
			return false
		}
		for c.Recv.Size() < expLength {
			n, err := c.Socket.Recv(c.Recv.Tail())
			if err != nil {
				return false
			}
			c.Recv.Stored(n)
		}
		form.Parse(c.Recv.Transient()[:expLength])
		return true
	default:
		out, ok := consumer.(stream.Output)
		if !ok {
			return false
		}
		got := c.Recv.Size()
		if got > expLength {
			got = expLength
		}
		if out.Write(c.Recv.Transient()[:got]) != got {
			return false
		}
		c.Recv.ResetTransient(0)
		in := socket.Stream{S: &c.Socket}
		remaining := expLength - got
		return stream.Copy(in, out, c.Recv.Tail(), remaining) == remaining
	}
}
