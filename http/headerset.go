package http

import "github.com/freekieb7/pebble/buffer"

// NewValueFor builds the parsed-value holder matching one header. The
// shape and list capacities are fixed here, per header, once and for
// all.
func NewValueFor(h Header) Value {
	mimeToken := func() Value { return &EnumTokenValue{table: &mimeTable, V: -1} }
	charsetToken := func() Value { return &EnumTokenValue{table: &charsetTable, V: -1} }
	encodingToken := func() Value { return &EnumTokenValue{table: &encodingTable, V: -1} }
	languageAttr := func() Value { return &EnumAttrValue{table: &languageTable, V: -1} }
	cacheAttr := func() Value { return &EnumAttrValue{table: &cacheControlTable, V: -1} }

	switch h {
	case HeaderAccept:
		return NewValueList(16, true, mimeToken)
	case HeaderAcceptCharset:
		return NewValueList(4, false, charsetToken)
	case HeaderAcceptEncoding:
		return NewValueList(4, false, encodingToken)
	case HeaderAcceptLanguage, HeaderContentLanguage:
		return NewValueList(8, false, languageAttr)
	case HeaderCacheControl:
		return NewValueList(4, false, cacheAttr)
	case HeaderConnection:
		return &EnumValue{table: &connectionTable, V: -1, strict: true}
	case HeaderContentEncoding:
		return NewValueList(2, false, encodingToken)
	case HeaderContentType:
		return &EnumAttrValue{table: &mimeTable, V: -1}
	case HeaderContentLength:
		return &UnsignedValue{}
	case HeaderCookie, HeaderRange:
		return &KeyValue{}
	case HeaderTE, HeaderTransferEncoding:
		return NewValueList(4, false, encodingToken)
	default:
		return &StringValue{}
	}
}

// HeaderSet is the fixed collection of headers one route (or the
// client's answer reader) declared interest in. Position lookup is
// linear in the set size, which stays single digits in practice.
type HeaderSet struct {
	headers []Header
	values  []Value
}

// NewHeaderSet builds the set for the declared headers plus the implicit
// members every request wants: Authorization and Connection for
// GET-like routes, Content-Type, Content-Length and Connection for
// routes taking POST or PUT. Duplicates collapse; declared order wins.
func NewHeaderSet(mask MethodMask, declared ...Header) *HeaderSet {
	implicit := []Header{HeaderAuthorization, HeaderConnection}
	if mask.Has(MethodPost) || mask.Has(MethodPut) {
		implicit = []Header{HeaderContentType, HeaderContentLength, HeaderConnection}
	}

	s := &HeaderSet{}
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
	for _, h := range implicit {
		add(h)
	}
	return s
}

// Headers lists the members in their stable order.
func (s *HeaderSet) Headers() []Header { return s.headers }

// Index returns the position of h, or -1 when absent.
func (s *HeaderSet) Index(h Header) int {
	for i, x := range s.headers {
		if x == h {
			return i
		}
	}
	return -1
}

// Get returns the value slot for h, nil when the set never declared it.
func (s *HeaderSet) Get(h Header) Value {
	if i := s.Index(h); i >= 0 {
		return s.values[i]
	}
	return nil
}

// GetString returns the raw string of an opaque string header.
func (s *HeaderSet) GetString(h Header) []byte {
	switch v := s.Get(h).(type) {
	case *StringValue:
		return v.V
	case *KeyValue:
		return v.V
	}
	return nil
}

// GetUint returns the value of an unsigned header and whether it was
// present.
func (s *HeaderSet) GetUint(h Header) (uint64, bool) {
	if v, ok := s.Get(h).(*UnsignedValue); ok {
		return v.V, v.set
	}
	return 0, false
}

// GetEnum returns the ordinal of an enum-shaped header, or -1. For list
// headers it is the first parsed element.
func (s *HeaderSet) GetEnum(h Header) int8 { return s.GetEnumAt(h, 0) }

// GetEnumAt returns the i-th ordinal of a list header, -1 out of range.
func (s *HeaderSet) GetEnumAt(h Header, i int) int8 {
	v := s.Get(h)
	if l, ok := v.(*ValueList); ok {
		v = l.At(i)
	} else if i != 0 {
		return -1
	}
	switch e := v.(type) {
	case *EnumValue:
		return e.V
	case *EnumTokenValue:
		return e.V
	case *EnumAttrValue:
		return e.V
	}
	return -1
}

// GetCount returns how many elements a list header parsed (1 for
// scalars that are set, 0 otherwise).
func (s *HeaderSet) GetCount(h Header) int {
	switch v := s.Get(h).(type) {
	case *ValueList:
		return v.Count
	case nil:
		return 0
	default:
		if v.IsSet() {
			return 1
		}
		return 0
	}
}

// Accept resolves a wire header name against the set, case-insensitively.
func (s *HeaderSet) Accept(name []byte) Header {
	for _, h := range s.headers {
		if equalFold(name, h.String()) {
			return h
		}
	}
	return HeaderInvalid
}

// AcceptAndParse routes the value text at input into the slot matching
// name. The cursor is consumed up to and including the line's CRLF.
func (s *HeaderSet) AcceptAndParse(name []byte, input *[]byte) ParseStatus {
	h := s.Accept(name)
	if h == HeaderInvalid {
		return InvalidRequest
	}
	*input = trimLeftSpaces(*input)
	value := splitUpTo(input, "\r\n")
	return s.Get(h).ParseFrom(&value)
}

// Reset clears every slot for the next request.
func (s *HeaderSet) Reset() {
	for _, v := range s.values {
		v.Reset()
	}
}

// VaultSize is the reservation needed to serialize the whole set.
func (s *HeaderSet) VaultSize() int {
	size := 0
	for _, v := range s.values {
		size += v.VaultSize()
	}
	return size
}

// SaveInVault serializes the set into a fresh vault reservation, packed
// and field-order stable.
func (s *HeaderSet) SaveInVault(tv *buffer.TransientVault) bool {
	region := tv.ReserveInVault(s.VaultSize())
	if region == nil {
		return false
	}
	off := 0
	for _, v := range s.values {
		off += v.SaveVault(region[off:])
	}
	return true
}

// LoadFromVault restores a set saved by SaveInVault. Restored string
// views alias the vault and stay valid until the vault is reset.
func (s *HeaderSet) LoadFromVault(tv *buffer.TransientVault) bool {
	region := tv.Vault()
	total := 0
	for _, v := range s.values {
		if total >= len(region) {
			return false
		}
		total += v.LoadVault(region[total:])
	}
	return true
}
