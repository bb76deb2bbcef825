package http

// Encoding is an Accept-Encoding / Content-Encoding / TE value.
type Encoding int8

const (
	EncodingInvalid Encoding = -1
	EncodingAll     Encoding = iota - 1
	EncodingBr
	EncodingChunked
	EncodingCompress
	EncodingDeflate
	EncodingGzip
	EncodingIdentity
)

var encodingTable = EnumTable{names: []string{
	"*",
	"br",
	"chunked",
	"compress",
	"deflate",
	"gzip",
	"identity",
}}

// EncodingFromName resolves an encoding token, case-insensitively.
func EncodingFromName(name []byte) Encoding { return Encoding(encodingTable.Find(name)) }

func (e Encoding) String() string { return encodingTable.Name(int8(e)) }
