package http

import (
	"bytes"

	"github.com/freekieb7/pebble/buffer"
	"github.com/freekieb7/pebble/urlpath"
)

// Query is the part of a request target after the question mark, e.g.
// "a=b&c[]=3&d". Keys and values are located lazily; nothing is decoded
// here.
type Query struct {
	Raw []byte
}

// ValueFor returns the value for key, or nil when the key is absent or
// carries no value.
func (q Query) ValueFor(key []byte) []byte {
	rest := q.Raw
	for {
		i := bytes.Index(rest, key)
		if i < 0 {
			return nil
		}
		candidate := rest[i+len(key):]
		if len(candidate) > 0 && candidate[0] == '=' {
			candidate = candidate[1:]
			if j := bytes.IndexByte(candidate, '&'); j >= 0 {
				candidate = candidate[:j]
			}
			return candidate
		}
		rest = candidate
	}
}

// Iterate walks the query keys. iter starts at 0; value is empty for
// bare keys. Returns false when the query is exhausted.
func (q Query) Iterate(iter *int, key, value *[]byte) bool {
	if *iter >= len(q.Raw) {
		return false
	}
	rest := q.Raw[*iter:]
	pair := rest
	if j := bytes.IndexByte(rest, '&'); j >= 0 {
		pair = rest[:j]
		*iter += j + 1
	} else {
		*iter += len(rest)
	}
	if len(pair) == 0 {
		return q.Iterate(iter, key, value)
	}
	if eq := bytes.IndexByte(pair, '='); eq >= 0 {
		*key = pair[:eq]
		*value = pair[eq+1:]
	} else {
		*key = pair
		*value = nil
	}
	return true
}

// RequestURI is the request target. Servers that are not proxies only
// ever see an absolute path (with optional query) or the lone asterisk.
type RequestURI struct {
	AbsolutePath []byte
}

// AppliesToAllResources reports the asterisk form.
func (u *RequestURI) AppliesToAllResources() bool {
	return len(u.AbsolutePath) == 1 && u.AbsolutePath[0] == '*'
}

// OnlyPath strips the query part.
func (u *RequestURI) OnlyPath() []byte {
	if i := bytes.IndexByte(u.AbsolutePath, '?'); i >= 0 {
		return u.AbsolutePath[:i]
	}
	return u.AbsolutePath
}

// QueryPart returns the query string accessor (empty when absent).
func (u *RequestURI) QueryPart() Query {
	if i := bytes.IndexByte(u.AbsolutePath, '?'); i >= 0 {
		return Query{Raw: u.AbsolutePath[i+1:]}
	}
	return Query{}
}

// Normalize rewrites the path in place (the target must still live in
// mutable storage). The asterisk form is preserved verbatim.
func (u *RequestURI) Normalize() bool {
	out, ok := urlpath.Normalize(u.AbsolutePath, true)
	if !ok {
		return false
	}
	u.AbsolutePath = out
	return true
}

// Persist relocates the target into the vault.
func (u *RequestURI) Persist(tv *buffer.TransientVault, futureDrop int) bool {
	return buffer.PersistString(&u.AbsolutePath, tv, futureDrop)
}

// RequestLine is "METHOD SP Request-URI SP HTTP-Version CRLF".
type RequestLine struct {
	Method  Method
	URI     RequestURI
	Version Version
}

// Parse consumes a complete request line from input. Anything but a
// known method, a target, and HTTP/1.0 or 1.1 followed by CRLF is an
// invalid request. Returns MoreData on success: headers follow.
func (r *RequestLine) Parse(input *[]byte) ParseStatus {
	m := splitUpTo(input, " ")
	r.Method = MethodFromName(m)
	if r.Method == MethodInvalid {
		return InvalidRequest
	}

	*input = trimLeftSpaces(*input)
	r.URI.AbsolutePath = splitUpTo(input, " ")
	if len(r.URI.AbsolutePath) == 0 || len(*input) == 0 {
		return InvalidRequest
	}

	*input = trimLeftSpaces(*input)
	if !bytes.Equal(splitUpTo(input, "/1."), []byte("HTTP")) {
		return InvalidRequest
	}
	if len(*input) < 3 {
		return InvalidRequest
	}
	switch (*input)[0] {
	case '0':
		r.Version = VersionHTTP10
	case '1':
		r.Version = VersionHTTP11
	default:
		return InvalidRequest
	}
	if (*input)[1] != '\r' || (*input)[2] != '\n' {
		return InvalidRequest
	}
	splitAt(input, 3)
	return MoreData
}

// Persist pushes the URI into the vault before the transient area is
// reused.
func (r *RequestLine) Persist(tv *buffer.TransientVault, futureDrop int) bool {
	return r.URI.Persist(tv, futureDrop)
}

func (r *RequestLine) Reset() {
	r.Method = MethodInvalid
	r.URI.AbsolutePath = nil
	r.Version = VersionInvalid
}
