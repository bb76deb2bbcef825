package server

import (
	"strings"

	"github.com/freekieb7/pebble/buffer"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/socket"
	"github.com/freekieb7/pebble/stream"
)

// Answer is one strategy for emitting a response. The client drives the
// shared protocol (status line, connection policy, length framing); the
// shape only contributes its headers and its body source.
type Answer interface {
	Code() http.Code
	SetCode(code http.Code)
	HasHeader(h http.Header) bool
	WriteHeaders(tb *buffer.TrackedBuffer) bool
	// InputStream is the sized (or declared-content) body source, nil
	// when the shape has no body at all.
	InputStream() stream.Input
	// SendContent produces an unsized body (chunk by chunk) directly to
	// the client, returning the total payload size.
	SendContent(c *Client) (int, bool)
}

// BaseAnswer carries the code and the declared output header set.
type BaseAnswer struct {
	code    http.Code
	headers *http.AnswerHeaderSet
}

func (a *BaseAnswer) Code() http.Code          { return a.code }
func (a *BaseAnswer) SetCode(code http.Code)   { a.code = code }
func (a *BaseAnswer) HasHeader(h http.Header) bool { return a.headers.Has(h) }

func (a *BaseAnswer) WriteHeaders(tb *buffer.TrackedBuffer) bool {
	return a.headers.WriteTo(tb)
}

func (a *BaseAnswer) InputStream() stream.Input   { return nil }
func (a *BaseAnswer) SendContent(*Client) (int, bool) { return 0, true }

// Headers exposes the header set for per-request values.
func (a *BaseAnswer) Headers() *http.AnswerHeaderSet { return a.headers }

// CodeAnswer is the smallest shape: a status and an empty body.
type CodeAnswer struct {
	BaseAnswer
}

func NewCodeAnswer(code http.Code) *CodeAnswer {
	return &CodeAnswer{BaseAnswer{code: code, headers: http.NewAnswerHeaderSet()}}
}

// SimpleAnswer is a fixed message with its MIME type.
type SimpleAnswer struct {
	BaseAnswer
	msg []byte
}

func NewSimpleAnswer(code http.Code, mime http.MIMEType, msg []byte) *SimpleAnswer {
	a := &SimpleAnswer{
		BaseAnswer: BaseAnswer{code: code, headers: http.NewAnswerHeaderSet(http.HeaderContentType)},
		msg:        msg,
	}
	a.headers.SetEnum(http.HeaderContentType, int8(mime))
	return a
}

func (a *SimpleAnswer) InputStream() stream.Input { return stream.NewMemoryView(a.msg) }

// FileAnswer streams a file, with the MIME type taken from the
// extension. A file that does not open answers 404.
type FileAnswer struct {
	BaseAnswer
	file *stream.FileInput
}

func NewFileAnswer(path string, extraHeaders ...http.Header) *FileAnswer {
	headers := append([]http.Header{http.HeaderContentType}, extraHeaders...)
	a := &FileAnswer{
		BaseAnswer: BaseAnswer{code: http.CodeNotFound, headers: http.NewAnswerHeaderSet(headers...)},
		file:       stream.OpenFile(path),
	}
	if a.file.HasContent() {
		a.code = http.CodeOk
		ext := ""
		if i := strings.LastIndexByte(path, '.'); i >= 0 {
			ext = path[i+1:]
		}
		a.headers.SetEnum(http.HeaderContentType, int8(http.MIMEFromExtension(ext)))
	}
	return a
}

func (a *FileAnswer) InputStream() stream.Input { return a.file }

// Close releases the file once the answer was sent.
func (a *FileAnswer) Close() { a.file.Close() }

// HeaderAnswer is an arbitrary header set with no body.
type HeaderAnswer struct {
	BaseAnswer
}

func NewHeaderAnswer(code http.Code, headers *http.AnswerHeaderSet) *HeaderAnswer {
	if headers == nil {
		headers = http.NewAnswerHeaderSet()
	}
	return &HeaderAnswer{BaseAnswer{code: code, headers: headers}}
}

// CaptureAnswer wraps a generator producing successive body pieces; the
// body goes out chunked and ends when the generator yields nothing.
type CaptureAnswer struct {
	BaseAnswer
	next func() []byte
}

func NewCaptureAnswer(code http.Code, headers *http.AnswerHeaderSet, next func() []byte) *CaptureAnswer {
	if headers == nil {
		headers = http.NewAnswerHeaderSet()
	}
	return &CaptureAnswer{BaseAnswer{code: code, headers: headers}, next}
}

func (a *CaptureAnswer) InputStream() stream.Input { return stream.Empty{} }

func (a *CaptureAnswer) SendContent(c *Client) (int, bool) {
	out := stream.ChunkedOutput{Out: socket.Stream{S: &c.Socket}}
	total := 0
	for {
		piece := a.next()
		if len(piece) == 0 {
			break
		}
		if out.Write(piece) != len(piece) {
			return total, false
		}
		total += len(piece)
	}
	out.Write(nil)
	return total, true
}
