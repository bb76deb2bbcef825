package http

import "github.com/freekieb7/pebble/buffer"

// AnswerHeaderSet is the output-side counterpart of HeaderSet: a fixed
// list of headers an answer may emit. Unset members write nothing.
type AnswerHeaderSet struct {
	headers []Header
	values  []Value
}

// NewAnswerHeaderSet declares an answer's header list. WWW-Authenticate
// is always a member so authentication-challenging answers need no
// dedicated shape; it stays silent while unset.
func NewAnswerHeaderSet(declared ...Header) *AnswerHeaderSet {
	s := &AnswerHeaderSet{}
	add := func(h Header) {
		if h == HeaderInvalid || s.Index(h) >= 0 {
			return
		}
		s.headers = append(s.headers, h)
		s.values = append(s.values, NewValueFor(h))
	}
	for _, h := range declared {
		add(h)
	}
	add(HeaderWWWAuthenticate)
	return s
}

// Index returns the position of h, or -1 when absent.
func (s *AnswerHeaderSet) Index(h Header) int {
	for i, x := range s.headers {
		if x == h {
			return i
		}
	}
	return -1
}

// Get returns the value slot for h, nil when absent.
func (s *AnswerHeaderSet) Get(h Header) Value {
	if i := s.Index(h); i >= 0 {
		return s.values[i]
	}
	return nil
}

// Has reports whether h is declared and carries a value.
func (s *AnswerHeaderSet) Has(h Header) bool {
	v := s.Get(h)
	return v != nil && v.IsSet()
}

// SetEnum assigns an enum-shaped header.
func (s *AnswerHeaderSet) SetEnum(h Header, ordinal int8) {
	switch v := s.Get(h).(type) {
	case *EnumValue:
		v.SetEnum(ordinal)
	case *EnumTokenValue:
		v.SetEnum(ordinal)
	case *EnumAttrValue:
		v.SetEnum(ordinal)
	case *ValueList:
		if v.Count < v.Cap() {
			item := v.items[v.Count]
			switch e := item.(type) {
			case *EnumValue:
				e.SetEnum(ordinal)
			case *EnumTokenValue:
				e.SetEnum(ordinal)
			case *EnumAttrValue:
				e.SetEnum(ordinal)
			}
			v.Count++
		}
	}
}

// SetString assigns a string-shaped header.
func (s *AnswerHeaderSet) SetString(h Header, value []byte) {
	switch v := s.Get(h).(type) {
	case *StringValue:
		v.SetString(value)
	case *KeyValue:
		v.SetString(value)
	}
}

// SetUint assigns an unsigned header.
func (s *AnswerHeaderSet) SetUint(h Header, value uint64) {
	if v, ok := s.Get(h).(*UnsignedValue); ok {
		v.SetUint(value)
	}
}

// SetIfUnset assigns an enum header only when it has no value yet.
func (s *AnswerHeaderSet) SetIfUnset(h Header, ordinal int8) {
	if v := s.Get(h); v != nil && !v.IsSet() {
		s.SetEnum(h, ordinal)
	}
}

// WriteTo renders every set member as "Name:value\r\n".
func (s *AnswerHeaderSet) WriteTo(tb *buffer.TrackedBuffer) bool {
	for i, h := range s.headers {
		v := s.values[i]
		if !v.IsSet() {
			continue
		}
		if !tb.SaveString(h.String()) || !tb.SaveString(":") {
			return false
		}
		if !v.WriteTo(tb) {
			return false
		}
		if !tb.SaveString("\r\n") {
			return false
		}
	}
	return true
}

// Reset clears every slot.
func (s *AnswerHeaderSet) Reset() {
	for _, v := range s.values {
		v.Reset()
	}
}
