package http

// ConnToken is a Connection header value.
type ConnToken int8

const (
	ConnInvalid   ConnToken = -1
	ConnClose     ConnToken = iota - 1
	ConnKeepAlive
	ConnUpgrade
)

var connectionTable = EnumTable{names: []string{
	"close",
	"keep-alive",
	"upgrade",
}}

// ConnTokenFromName resolves a connection token, case-insensitively.
func ConnTokenFromName(name []byte) ConnToken { return ConnToken(connectionTable.Find(name)) }

func (c ConnToken) String() string { return connectionTable.Name(int8(c)) }
