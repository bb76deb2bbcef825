package http

// Header identifies one of the recognized request or response headers.
// The ordinal order follows the case-insensitive order of the canonical
// names, which keeps HeaderFromName a binary search. Unknown headers on
// the wire are skipped, never stored.
type Header int8

const (
	HeaderInvalid Header = -1
	HeaderAccept  Header = iota - 1
	HeaderAcceptCharset
	HeaderAcceptDatetime
	HeaderAcceptEncoding
	HeaderAcceptLanguage
	HeaderAcceptPatch
	HeaderAcceptRanges
	HeaderAccessControlAllowCredentials
	HeaderAccessControlAllowHeaders
	HeaderAccessControlAllowMethods
	HeaderAccessControlAllowOrigin
	HeaderAccessControlExposeHeaders
	HeaderAccessControlMaxAge
	HeaderAccessControlRequestMethod
	HeaderAllow
	HeaderAuthorization
	HeaderCacheControl
	HeaderConnection
	HeaderContentDisposition
	HeaderContentEncoding
	HeaderContentLanguage
	HeaderContentLength
	HeaderContentLocation
	HeaderContentRange
	HeaderContentType
	HeaderCookie
	HeaderDate
	HeaderETag
	HeaderExpect
	HeaderExpires
	HeaderForwarded
	HeaderFrom
	HeaderHost
	HeaderIfMatch
	HeaderIfModifiedSince
	HeaderIfNoneMatch
	HeaderIfRange
	HeaderIfUnmodifiedSince
	HeaderLastModified
	HeaderLink
	HeaderLocation
	HeaderMaxForwards
	HeaderOrigin
	HeaderPragma
	HeaderPrefer
	HeaderProxyAuthorization
	HeaderRange
	HeaderReferer
	HeaderServer
	HeaderSetCookie
	HeaderStrictTransportSecurity
	HeaderTE
	HeaderTrailer
	HeaderTransferEncoding
	HeaderUpgrade
	HeaderUserAgent
	HeaderVia
	HeaderWWWAuthenticate
	HeaderXForwardedFor
)

var headerTable = EnumTable{names: []string{
	"Accept",
	"Accept-Charset",
	"Accept-Datetime",
	"Accept-Encoding",
	"Accept-Language",
	"Accept-Patch",
	"Accept-Ranges",
	"Access-Control-Allow-Credentials",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Origin",
	"Access-Control-Expose-Headers",
	"Access-Control-Max-Age",
	"Access-Control-Request-Method",
	"Allow",
	"Authorization",
	"Cache-Control",
	"Connection",
	"Content-Disposition",
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-Location",
	"Content-Range",
	"Content-Type",
	"Cookie",
	"Date",
	"ETag",
	"Expect",
	"Expires",
	"Forwarded",
	"From",
	"Host",
	"If-Match",
	"If-Modified-Since",
	"If-None-Match",
	"If-Range",
	"If-Unmodified-Since",
	"Last-Modified",
	"Link",
	"Location",
	"Max-Forwards",
	"Origin",
	"Pragma",
	"Prefer",
	"Proxy-Authorization",
	"Range",
	"Referer",
	"Server",
	"Set-Cookie",
	"Strict-Transport-Security",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"User-Agent",
	"Via",
	"WWW-Authenticate",
	"X-Forwarded-For",
}}

// HeaderFromName resolves a header name, case-insensitively.
func HeaderFromName(name []byte) Header { return Header(headerTable.Find(name)) }

func (h Header) String() string { return headerTable.Name(int8(h)) }
