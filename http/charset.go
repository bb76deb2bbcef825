package http

// Charset is an Accept-Charset value.
type Charset int8

const (
	CharsetInvalid   Charset = -1
	CharsetISO88591  Charset = iota - 1
	CharsetISO885910 Charset = iota - 1
	CharsetISO885911
	CharsetISO885912
	CharsetISO885913
	CharsetISO885914
	CharsetISO885915
	CharsetISO885916
	CharsetISO88592
	CharsetISO88593
	CharsetISO88594
	CharsetISO88595
	CharsetISO88596
	CharsetISO88597
	CharsetISO88598
	CharsetISO88599
	CharsetISO8859x
	CharsetUSASCII
	CharsetUTF16
	CharsetUTF32
	CharsetUTF8
)

var charsetTable = EnumTable{names: []string{
	"ISO-8859-1",
	"ISO-8859-10",
	"ISO-8859-11",
	"ISO-8859-12",
	"ISO-8859-13",
	"ISO-8859-14",
	"ISO-8859-15",
	"ISO-8859-16",
	"ISO-8859-2",
	"ISO-8859-3",
	"ISO-8859-4",
	"ISO-8859-5",
	"ISO-8859-6",
	"ISO-8859-7",
	"ISO-8859-8",
	"ISO-8859-9",
	"ISO-8859-x",
	"us-ascii",
	"utf-16",
	"utf-32",
	"utf-8",
}}

// CharsetFromName resolves a charset token, case-insensitively.
func CharsetFromName(name []byte) Charset { return Charset(charsetTable.Find(name)) }

func (c Charset) String() string { return charsetTable.Name(int8(c)) }
