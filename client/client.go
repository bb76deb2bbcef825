// Package client is the outgoing mirror of the server: it reuses the
// same wire taxonomy, header sets and buffer discipline to send one
// request and decode one response.
package client

import (
	"bytes"
	"crypto/tls"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/freekieb7/pebble/buffer"
	"github.com/freekieb7/pebble/config"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/stream"
	"github.com/freekieb7/pebble/telemetry"
)

const (
	maxRedirects   = 3
	connectTimeout = 5 * time.Second
)

// Callback receives the decoded pieces of the server's answer.
type Callback interface {
	// ServerAnswered is called once with the response status.
	ServerAnswered(code http.Code)
	// HeaderReceived is called for every header of the interest set.
	HeaderReceived(h http.Header, value []byte)
	// DataReceived is handed the decoded body stream (length framing
	// and chunking already stripped). total is 0 when unknown.
	DataReceived(in stream.Input, total int) bool
}

// BasicCallback copies the body into an output stream and ignores the
// rest.
type BasicCallback struct {
	Out stream.Output
}

func (BasicCallback) ServerAnswered(http.Code)            {}
func (BasicCallback) HeaderReceived(http.Header, []byte)  {}

func (b BasicCallback) DataReceived(in stream.Input, total int) bool {
	var buf [512]byte
	if total > 0 {
		return stream.Copy(in, b.Out, buf[:], total) == total
	}
	for {
		n := in.Read(buf[:])
		if n == 0 {
			return true
		}
		if b.Out.Write(buf[:n]) != n {
			return false
		}
	}
}

// Request describes one outgoing request.
type Request struct {
	Method http.Method
	URL    string
	// AdditionalHeaders is sent verbatim after the Host header; each
	// line must end with CRLF.
	AdditionalHeaders string
	// HeadersOfInterest selects which response headers reach the
	// callback.
	HeadersOfInterest []http.Header
	Callback          Callback

	// Body, when non-nil and sized, is streamed with Content-Length
	// and BodyType.
	Body     stream.Input
	BodyType http.MIMEType
}

// Client sends requests. It holds no connection state between calls.
type Client struct {
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Client {
	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Client{cfg: cfg, log: log}
}

type connStream struct {
	conn net.Conn
}

func (s connStream) Size() int        { return 0 }
func (s connStream) HasContent() bool { return true }

func (s connStream) Read(buf []byte) int {
	n, err := s.conn.Read(buf)
	if err != nil && n == 0 {
		return 0
	}
	return n
}

func (s connStream) Write(buf []byte) int {
	n, err := s.conn.Write(buf)
	if err != nil {
		return n
	}
	return n
}

// SendRequest performs the request, following up to three redirect hops
// (301, 302 and 307 with a Location header only). A 401 burns one hop
// as the hook for a future authentication retry.
func (c *Client) SendRequest(req *Request) (http.Code, error) {
	currentURL := req.URL
	for redirects := maxRedirects; redirects >= 0; redirects-- {
		code, location, err := c.sendOnce(req, currentURL)
		if err != nil {
			return code, err
		}
		if code.IsRedirect() && location != "" {
			c.log.Debug("following redirect", slog.String("location", location))
			currentURL = location
			continue
		}
		if code == http.CodeUnauthorized {
			continue
		}
		return code, nil
	}
	return http.CodeClientRequestError, errors.New("too many redirects")
}

type parsedURL struct {
	https bool
	host  string
	port  string
	uri   string
}

func (c *Client) parseURL(raw string) (parsedURL, error) {
	var out parsedURL
	rest, ok := strings.CutPrefix(raw, "http://")
	if !ok {
		rest, ok = strings.CutPrefix(raw, "https://")
		if !ok {
			return out, errors.Newf("unsupported scheme in %q", raw)
		}
		out.https = true
	}
	if out.https && !c.cfg.UseTLSClient {
		return out, errors.New("https requires the TLS client build")
	}

	authority := rest
	out.uri = "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority = rest[:i]
		out.uri = rest[i:]
	}
	if strings.IndexByte(authority, '@') >= 0 {
		return out, errors.New("credentials in URL are not supported")
	}
	out.host = authority
	out.port = "80"
	if out.https {
		out.port = "443"
	}
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		out.host = authority[:i]
		out.port = authority[i+1:]
	}
	if out.host == "" {
		return out, errors.Newf("no host in %q", raw)
	}
	return out, nil
}

func (c *Client) connect(u parsedURL) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(u.host, u.port), connectTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if !u.https {
		return conn, nil
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: u.host})
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "tls handshake")
	}
	return tlsConn, nil
}

func (c *Client) sendOnce(req *Request, rawURL string) (http.Code, string, error) {
	u, err := c.parseURL(rawURL)
	if err != nil {
		return http.CodeClientRequestError, "", err
	}

	conn, err := c.connect(u)
	if err != nil {
		return http.CodeUnavailable, "", err
	}
	defer conn.Close()

	head := make([]byte, 0, 256)
	head = append(head, req.Method.String()...)
	head = append(head, ' ')
	head = append(head, u.uri...)
	head = append(head, " HTTP/1.1\r\nHost:"...)
	head = append(head, u.host...)
	head = append(head, "\r\n"...)
	head = append(head, req.AdditionalHeaders...)
	head = append(head, "Accept-Encoding:identity\r\n"...)

	out := connStream{conn: conn}
	if out.Write(head) != len(head) {
		return http.CodeUnavailable, "", errors.New("send request head")
	}

	if req.Body != nil && req.Body.Size() > 0 {
		if err := c.sendBody(req, out); err != nil {
			return http.CodeUnavailable, "", err
		}
	} else if req.Body != nil {
		// Chunked uploads are not supported.
		return http.CodeClientRequestError, "", errors.New("request body has no size")
	} else if out.Write([]byte("\r\n")) != 2 {
		return http.CodeUnavailable, "", errors.New("finish request head")
	}

	return c.readAnswer(req, out)
}

func (c *Client) sendBody(req *Request, out connStream) error {
	head := make([]byte, 0, 96)
	if req.BodyType != http.MIMEInvalid {
		head = append(head, "Content-Type:"...)
		head = append(head, req.BodyType.String()...)
		head = append(head, "\r\n"...)
	}
	head = append(head, "Content-Length:"...)
	var digits [20]byte
	head = append(head, digits[:http.AppendUint(digits[:], uint64(req.Body.Size()))]...)
	head = append(head, "\r\n\r\n"...)
	if out.Write(head) != len(head) {
		return errors.New("send body head")
	}

	var buf [1024]byte
	if stream.Copy(req.Body, out, buf[:], req.Body.Size()) != req.Body.Size() {
		return errors.New("send body")
	}
	return nil
}

func parseStatusLine(line []byte) (http.Code, bool) {
	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return http.CodeInvalid, false
	}
	proto := line[:sp]
	if !bytes.Equal(proto, []byte("HTTP/1.1")) && !bytes.Equal(proto, []byte("HTTP/1.0")) {
		return http.CodeInvalid, false
	}
	rest := bytes.TrimLeft(line[sp:], " ")
	if len(rest) < 3 {
		return http.CodeInvalid, false
	}
	code := 0
	for i := 0; i < 3; i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return http.CodeInvalid, false
		}
		code = code*10 + int(rest[i]-'0')
	}
	if code < 100 || code > 599 {
		return http.CodeInvalid, false
	}
	return http.Code(code), true
}

func (c *Client) interestedIn(req *Request, h http.Header) bool {
	for _, x := range req.HeadersOfInterest {
		if x == h {
			return true
		}
	}
	return false
}

func (c *Client) readAnswer(req *Request, in connStream) (http.Code, string, error) {
	tv, err := buffer.NewTransientVault(c.cfg.ClientBufferSize)
	if err != nil {
		return http.CodeClientRequestError, "", err
	}
	answer := http.NewHeaderSet(http.MaskOf(http.MethodGet),
		http.HeaderContentType,
		http.HeaderContentLength,
		http.HeaderTransferEncoding,
		http.HeaderContentEncoding,
		http.HeaderWWWAuthenticate)

	cb := req.Callback

	var code http.Code
	statusSeen := false
	headersDone := false

	for !headersDone {
		if tv.FreeSize() == 0 {
			return http.CodeClientRequestError, "", errors.New("answer head does not fit the buffer")
		}
		n := in.Read(tv.Tail())
		if n == 0 {
			return http.CodeClientRequestError, "", errors.New("connection closed in answer head")
		}
		tv.Stored(n)

		input := tv.Transient()
		consumed := 0

		if !statusSeen {
			eol := bytes.Index(input, []byte("\r\n"))
			if eol < 0 {
				continue
			}
			var ok bool
			code, ok = parseStatusLine(input[:eol])
			if !ok {
				return http.CodeUnsupportedHTTPVersion, "", errors.New("bad status line")
			}
			statusSeen = true
			if cb != nil {
				cb.ServerAnswered(code)
			}
			consumed += eol + 2
			input = input[eol+2:]
		}

		for {
			eol := bytes.Index(input, []byte("\r\n"))
			if eol < 0 {
				tv.Drop(consumed)
				break
			}
			line := input[:eol]
			input = input[eol+2:]
			consumed += eol + 2
			if len(line) == 0 {
				headersDone = true
				tv.Drop(consumed)
				break
			}

			cursor := line
			var name []byte
			if http.ParseHeaderName(&cursor, &name) != http.MoreData {
				return http.CodeUnsupportedHTTPVersion, "", errors.New("bad header line")
			}
			h := http.HeaderFromName(name)

			if cb != nil && h != http.HeaderInvalid && c.interestedIn(req, h) {
				valueCursor := cursor
				var value []byte
				if http.ParseHeaderValue(&valueCursor, &value) == http.MoreData {
					cb.HeaderReceived(h, value)
				}
			}

			if h == http.HeaderLocation {
				valueCursor := cursor
				var value []byte
				if http.ParseHeaderValue(&valueCursor, &value) == http.MoreData {
					// Stop here; the outer loop decides whether this
					// answer's code warrants the hop.
					return code, string(value), nil
				}
			}

			// Unknown or undeclared headers fall through silently.
			answer.AcceptAndParse(name, &cursor)
		}
	}

	if answer.GetCount(http.HeaderWWWAuthenticate) > 0 {
		// Authentication challenges are surfaced, not solved.
		return code, "", nil
	}

	length, _ := answer.GetUint(http.HeaderContentLength)
	if length > 0 {
		if enc := answer.GetEnum(http.HeaderContentEncoding); enc >= 0 && enc != int8(http.EncodingIdentity) {
			return http.CodeClientRequestError, "", errors.New("answer body uses an unsupported encoding")
		}
		body := stream.Buffered{Head: tv.Transient(), In: in}
		if cb != nil && !cb.DataReceived(&body, int(length)) {
			return http.CodeClientRequestError, "", errors.New("body consumer failed")
		}
		return code, "", nil
	}

	if answer.GetCount(http.HeaderTransferEncoding) > 0 {
		if answer.GetCount(http.HeaderTransferEncoding) > 1 ||
			answer.GetEnum(http.HeaderTransferEncoding) != int8(http.EncodingChunked) {
			return http.CodeClientRequestError, "", errors.New("unsupported transfer encoding")
		}
		body := stream.ChunkedInput{Src: &stream.Buffered{Head: tv.Transient(), In: in}}
		if cb != nil && !cb.DataReceived(&body, 0) {
			return http.CodeClientRequestError, "", errors.New("body consumer failed")
		}
	}
	return code, "", nil
}
