package server

import (
	"bytes"

	"github.com/freekieb7/pebble/urlpath"
)

// FormPost captures an application/x-www-form-urlencoded body for a
// fixed key set. Values are views into the receive buffer, valid until
// the answer is emitted.
type FormPost struct {
	keys   []string
	values [][]byte
}

// NewFormPost declares the keys worth keeping; anything else in the
// body is skipped.
func NewFormPost(keys ...string) *FormPost {
	return &FormPost{keys: keys, values: make([][]byte, len(keys))}
}

func (f *FormPost) keyPos(key []byte) int {
	for i, k := range f.keys {
		if string(key) == k {
			return i
		}
	}
	return -1
}

// Value returns the captured value for key, nil when absent.
func (f *FormPost) Value(key string) []byte {
	if i := f.keyPos([]byte(key)); i >= 0 {
		return f.values[i]
	}
	return nil
}

// Parse decodes the body in place and captures the declared keys.
func (f *FormPost) Parse(body []byte) {
	rest := urlpath.Decode(body)
	for len(rest) > 0 {
		pair := rest
		if i := bytes.IndexByte(rest, '&'); i >= 0 {
			pair = rest[:i]
			rest = rest[i+1:]
		} else {
			rest = nil
		}
		if len(pair) == 0 {
			continue
		}
		key := pair
		var value []byte
		if eq := bytes.IndexByte(pair, '='); eq >= 0 {
			key = pair[:eq]
			value = pair[eq+1:]
		}
		if p := f.keyPos(key); p >= 0 {
			f.values[p] = value
		}
	}
}

// Reset forgets all captured values.
func (f *FormPost) Reset() {
	for i := range f.values {
		f.values[i] = nil
	}
}
