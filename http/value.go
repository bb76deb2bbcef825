package http

import (
	"bytes"

	"github.com/freekieb7/pebble/buffer"
)

// Value is the parsed form of one header. Implementations parse the raw
// value text (consuming their input cursor), re-serialize to the
// canonical wire form, and know how to relocate any borrowed string
// views plus how to round-trip through a vault reservation.
//
// String views held by a Value alias the connection buffer: they are
// only stable after StringsToPersist relocation or a vault reload.
type Value interface {
	ParseFrom(val *[]byte) ParseStatus
	WriteTo(tb *buffer.TrackedBuffer) bool
	StringsToPersist(arr *buffer.PersistArray, idx *int)
	VaultSize() int
	SaveVault(dst []byte) int
	LoadVault(src []byte) int
	Reset()
	IsSet() bool
}

func putU16(dst []byte, v uint16) { dst[0] = byte(v); dst[1] = byte(v >> 8) }
func getU16(src []byte) uint16    { return uint16(src[0]) | uint16(src[1])<<8 }

func putU64(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func getU64(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}

func saveView(dst []byte, v []byte) int {
	putU16(dst, uint16(len(v)))
	copy(dst[2:], v)
	return 2 + len(v)
}

// loadView restores a view that aliases src, so the view stays valid as
// long as src (a vault region) does.
func loadView(src []byte, v *[]byte) int {
	n := int(getU16(src))
	*v = src[2 : 2+n]
	return 2 + n
}

// StringValue holds an opaque string header (Host, User-Agent, ...).
type StringValue struct {
	V []byte
}

func (s *StringValue) ParseFrom(val *[]byte) ParseStatus {
	s.V = trimSpaces(*val)
	*val = (*val)[len(*val):]
	return EndOfRequest
}

func (s *StringValue) WriteTo(tb *buffer.TrackedBuffer) bool { return tb.Save(s.V) }

func (s *StringValue) StringsToPersist(arr *buffer.PersistArray, idx *int) {
	arr[*idx] = &s.V
	*idx = *idx + 1
}

func (s *StringValue) VaultSize() int          { return 2 + len(s.V) }
func (s *StringValue) SaveVault(dst []byte) int { return saveView(dst, s.V) }
func (s *StringValue) LoadVault(src []byte) int { return loadView(src, &s.V) }
func (s *StringValue) Reset()                  { s.V = nil }
func (s *StringValue) IsSet() bool             { return len(s.V) > 0 }
func (s *StringValue) SetString(v []byte)      { s.V = v }

// KeyValue is a string value holding "name=value" pairs (Cookie, Range).
type KeyValue struct {
	StringValue
}

// FindValueFor extracts the value for one key out of the pair list.
func (s *KeyValue) FindValueFor(key []byte) []byte {
	i := bytes.Index(s.V, key)
	if i < 0 {
		return nil
	}
	v := trimLeftSpaces(s.V[i+len(key):])
	if len(v) == 0 || v[0] != '=' {
		return nil
	}
	v = bytes.TrimLeft(v, "= ")
	if j := bytes.IndexByte(v, ';'); j >= 0 {
		v = v[:j]
	}
	return trimRightSpaces(v)
}

// UnsignedValue holds a decimal integer header (Content-Length).
type UnsignedValue struct {
	V   uint64
	set bool
}

func (s *UnsignedValue) ParseFrom(val *[]byte) ParseStatus {
	n, err := atoi(trimSpaces(*val))
	*val = (*val)[len(*val):]
	if err != nil {
		return InvalidRequest
	}
	s.V = n
	s.set = true
	return EndOfRequest
}

func (s *UnsignedValue) WriteTo(tb *buffer.TrackedBuffer) bool {
	var buf [20]byte
	n := writeUintToBuffer(s.V, buf[:])
	return tb.Save(buf[:n])
}

func (s *UnsignedValue) StringsToPersist(*buffer.PersistArray, *int) {}

func (s *UnsignedValue) VaultSize() int { return 9 }

func (s *UnsignedValue) SaveVault(dst []byte) int {
	if s.set {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	putU64(dst[1:], s.V)
	return 9
}

func (s *UnsignedValue) LoadVault(src []byte) int {
	s.set = src[0] != 0
	s.V = getU64(src[1:])
	return 9
}

func (s *UnsignedValue) Reset()           { s.V = 0; s.set = false }
func (s *UnsignedValue) IsSet() bool      { return s.set }
func (s *UnsignedValue) SetUint(v uint64) { s.V = v; s.set = true }

// EnumValue holds a single token matched against a closed table. The
// strict flavor turns unknown tokens into a request error instead of the
// usual sentinel.
type EnumValue struct {
	table  *EnumTable
	V      int8
	strict bool
}

func (s *EnumValue) ParseFrom(val *[]byte) ParseStatus {
	s.V = s.table.Find(trimSpaces(*val))
	*val = (*val)[len(*val):]
	if s.V < 0 && s.strict {
		return InvalidRequest
	}
	return EndOfRequest
}

func (s *EnumValue) WriteTo(tb *buffer.TrackedBuffer) bool {
	name := s.table.Name(s.V)
	if name == "" {
		return true
	}
	return tb.SaveString(name)
}

func (s *EnumValue) StringsToPersist(*buffer.PersistArray, *int) {}

func (s *EnumValue) VaultSize() int           { return 1 }
func (s *EnumValue) SaveVault(dst []byte) int { dst[0] = byte(s.V); return 1 }
func (s *EnumValue) LoadVault(src []byte) int { s.V = int8(src[0]); return 1 }
func (s *EnumValue) Reset()                   { s.V = -1 }
func (s *EnumValue) IsSet() bool              { return s.V >= 0 }
func (s *EnumValue) SetEnum(v int8)           { s.V = v }

// parseEnumToken cuts "ident[;token][,rest]" off the cursor. The token
// part (a quality factor most of the time) keeps its leading ';'.
func parseEnumToken(val, ident, token *[]byte) ParseStatus {
	p := bytes.IndexAny(*val, ";,")
	if p >= 0 && (*val)[p] == ';' {
		*ident = trimSpaces(splitAt(val, p))
		q := bytes.IndexByte(*val, ',')
		if q < 0 {
			q = len(*val)
		}
		*token = trimSpaces(splitAt(val, q))
		*val = bytes.TrimLeft(*val, ",")
		if len(*val) > 0 {
			return MoreData
		}
		return EndOfRequest
	}
	if p < 0 {
		p = len(*val)
	}
	*ident = trimSpaces(splitAt(val, p))
	*val = bytes.TrimLeft(*val, ",")
	*token = nil
	if len(*val) > 0 {
		return MoreData
	}
	return EndOfRequest
}

// EnumTokenValue is an enum optionally followed by ";q=..."; the quality
// factor is parsed over and ignored.
type EnumTokenValue struct {
	table *EnumTable
	V     int8
}

func (s *EnumTokenValue) ParseFrom(val *[]byte) ParseStatus {
	var ident, token []byte
	st := parseEnumToken(val, &ident, &token)
	if st == InvalidRequest {
		return st
	}
	s.V = s.table.Find(ident)
	return st
}

func (s *EnumTokenValue) WriteTo(tb *buffer.TrackedBuffer) bool {
	name := s.table.Name(s.V)
	if name == "" {
		return true
	}
	return tb.SaveString(name)
}

func (s *EnumTokenValue) StringsToPersist(*buffer.PersistArray, *int) {}

func (s *EnumTokenValue) VaultSize() int           { return 1 }
func (s *EnumTokenValue) SaveVault(dst []byte) int { dst[0] = byte(s.V); return 1 }
func (s *EnumTokenValue) LoadVault(src []byte) int { s.V = int8(src[0]); return 1 }
func (s *EnumTokenValue) Reset()                   { s.V = -1 }
func (s *EnumTokenValue) IsSet() bool              { return s.V >= 0 }
func (s *EnumTokenValue) SetEnum(v int8)           { s.V = v }

// EnumAttrValue is an enum with trailing named attributes, e.g.
// "text/html;charset=utf-8" or "max-age=3600". The attributes keep their
// raw text and are looked up on demand.
type EnumAttrValue struct {
	table *EnumTable
	V     int8
	Attrs []byte
}

func (s *EnumAttrValue) ParseFrom(val *[]byte) ParseStatus {
	var ident []byte
	st := parseEnumToken(val, &ident, &s.Attrs)
	if st == InvalidRequest {
		return st
	}
	if len(s.Attrs) == 0 {
		// "name=value" form: the attribute rides in the ident itself.
		s.Attrs = ident
		ident = splitUpTo(&s.Attrs, "=")
	}
	s.V = s.table.Find(ident)
	return st
}

func (s *EnumAttrValue) WriteTo(tb *buffer.TrackedBuffer) bool {
	name := s.table.Name(s.V)
	if name == "" {
		return true
	}
	if !tb.SaveString(name) {
		return false
	}
	if len(s.Attrs) > 0 {
		// ";attr=value" attributes carry their own separator.
		if s.Attrs[0] != ';' && !tb.SaveString("=") {
			return false
		}
		if !tb.Save(s.Attrs) {
			return false
		}
	}
	return true
}

func (s *EnumAttrValue) StringsToPersist(arr *buffer.PersistArray, idx *int) {
	arr[*idx] = &s.Attrs
	*idx = *idx + 1
}

func (s *EnumAttrValue) VaultSize() int { return 1 + 2 + len(s.Attrs) }

func (s *EnumAttrValue) SaveVault(dst []byte) int {
	dst[0] = byte(s.V)
	return 1 + saveView(dst[1:], s.Attrs)
}

func (s *EnumAttrValue) LoadVault(src []byte) int {
	s.V = int8(src[0])
	return 1 + loadView(src[1:], &s.Attrs)
}

func (s *EnumAttrValue) Reset()      { s.V = -1; s.Attrs = nil }
func (s *EnumAttrValue) IsSet() bool { return s.V >= 0 }

func (s *EnumAttrValue) SetEnum(v int8) { s.V = v }

func (s *EnumAttrValue) SetEnumAttr(v int8, attrs []byte) { s.V = v; s.Attrs = attrs }

// FindAttributeValueFor extracts one named attribute's value.
func (s *EnumAttrValue) FindAttributeValueFor(key []byte) []byte {
	i := bytes.Index(s.Attrs, key)
	if i < 0 {
		return nil
	}
	v := trimLeftSpaces(s.Attrs[i+len(key):])
	if len(v) == 0 || v[0] != '=' {
		return nil
	}
	v = bytes.TrimLeft(v, "= ")
	if j := bytes.IndexByte(v, ';'); j >= 0 {
		v = v[:j]
	}
	return trimRightSpaces(v)
}

// ValueList is a bounded, comma-separated list of one element kind. The
// capacity is fixed when the owning header set is declared; a strict
// list rejects inputs that overflow it.
type ValueList struct {
	items  []Value
	Count  int
	strict bool
}

// NewValueList builds a list of n elements produced by newElem.
func NewValueList(n int, strict bool, newElem func() Value) *ValueList {
	items := make([]Value, n)
	for i := range items {
		items[i] = newElem()
	}
	return &ValueList{items: items, strict: strict}
}

func (s *ValueList) ParseFrom(val *[]byte) ParseStatus {
	s.Count = 0
	for s.Count < len(s.items) {
		st := s.items[s.Count].ParseFrom(val)
		if st == InvalidRequest {
			return InvalidRequest
		}
		s.Count++
		if st == EndOfRequest {
			return EndOfRequest
		}
	}
	if s.strict {
		return InvalidRequest
	}
	return MoreData
}

func (s *ValueList) WriteTo(tb *buffer.TrackedBuffer) bool {
	for i := 0; i < s.Count; i++ {
		if i > 0 && !tb.SaveString(",") {
			return false
		}
		if !s.items[i].WriteTo(tb) {
			return false
		}
	}
	return true
}

func (s *ValueList) StringsToPersist(arr *buffer.PersistArray, idx *int) {
	for i := 0; i < s.Count; i++ {
		s.items[i].StringsToPersist(arr, idx)
	}
}

func (s *ValueList) VaultSize() int {
	size := 1
	for i := 0; i < s.Count; i++ {
		size += s.items[i].VaultSize()
	}
	return size
}

func (s *ValueList) SaveVault(dst []byte) int {
	dst[0] = byte(s.Count)
	off := 1
	for i := 0; i < s.Count; i++ {
		off += s.items[i].SaveVault(dst[off:])
	}
	return off
}

func (s *ValueList) LoadVault(src []byte) int {
	s.Count = int(src[0])
	off := 1
	for i := 0; i < s.Count; i++ {
		off += s.items[i].LoadVault(src[off:])
	}
	return off
}

func (s *ValueList) Reset() {
	s.Count = 0
	for _, it := range s.items {
		it.Reset()
	}
}

func (s *ValueList) IsSet() bool { return s.Count > 0 }

// At returns the i-th parsed element, nil when out of range.
func (s *ValueList) At(i int) Value {
	if i < 0 || i >= s.Count {
		return nil
	}
	return s.items[i]
}

// Cap is the fixed element capacity.
func (s *ValueList) Cap() int { return len(s.items) }
