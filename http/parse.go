package http

import "bytes"

// ParseStatus is the outcome of every incremental parsing step. Parsers
// never use errors for control flow; the connection owner maps these to
// protocol answers.
type ParseStatus int8

const (
	// InvalidRequest means malformed syntax, terminal for the request.
	InvalidRequest ParseStatus = -1
	// EndOfRequest means the parser reached the logical end of its input.
	EndOfRequest ParseStatus = 0
	// MoreData means the parser made progress and expects more input.
	MoreData ParseStatus = 1
)

// splitUpTo returns the bytes before the first occurrence of sep and
// advances input past the separator. When sep is absent the whole input
// is returned and input becomes empty.
func splitUpTo(input *[]byte, sep string) []byte {
	i := bytes.Index(*input, []byte(sep))
	if i < 0 {
		head := *input
		*input = (*input)[len(*input):]
		return head
	}
	head := (*input)[:i]
	*input = (*input)[i+len(sep):]
	return head
}

// splitAt returns the first n bytes and advances input past them.
func splitAt(input *[]byte, n int) []byte {
	if n > len(*input) {
		n = len(*input)
	}
	head := (*input)[:n]
	*input = (*input)[n:]
	return head
}

func trimSpaces(b []byte) []byte { return bytes.Trim(b, " ") }

func trimLeftSpaces(b []byte) []byte { return bytes.TrimLeft(b, " ") }

func trimRightSpaces(b []byte) []byte { return bytes.TrimRight(b, " ") }

// ParseHeaderName consumes a header name up to the colon. It returns
// EndOfRequest when input holds nothing but whitespace, which is how the
// end of the header block manifests once the final CRLF was trimmed.
func ParseHeaderName(input *[]byte, name *[]byte) ParseStatus {
	*input = bytes.TrimLeft(*input, " \t\r\n")
	if len(*input) == 0 {
		return EndOfRequest
	}
	*name = trimRightSpaces(splitUpTo(input, ":"))
	return MoreData
}

// SkipHeaderValue discards the value of a header nobody declared
// interest in.
func SkipHeaderValue(input *[]byte) ParseStatus {
	splitUpTo(input, "\r\n")
	return MoreData
}

// ParseHeaderValue consumes a raw header value up to CRLF, trimmed.
func ParseHeaderValue(input *[]byte, value *[]byte) ParseStatus {
	*input = trimLeftSpaces(*input)
	if len(*input) == 0 {
		return InvalidRequest
	}
	*value = trimRightSpaces(splitUpTo(input, "\r\n"))
	return MoreData
}
