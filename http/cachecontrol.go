package http

// CacheDirective is a Cache-Control directive name.
type CacheDirective int8

const (
	CacheInvalid        CacheDirective = -1
	CacheMaxAge         CacheDirective = iota - 1
	CacheMaxStale
	CacheMinFresh
	CacheMustRevalidate
	CacheNoCache
	CacheNoStore
	CacheNoTransform
	CacheOnlyIfCached
)

var cacheControlTable = EnumTable{names: []string{
	"max-age",
	"max-stale",
	"min-fresh",
	"must-revalidate",
	"no-cache",
	"no-store",
	"no-transform",
	"only-if-cached",
}}

// CacheDirectiveFromName resolves a cache-control directive.
func CacheDirectiveFromName(name []byte) CacheDirective {
	return CacheDirective(cacheControlTable.Find(name))
}

func (c CacheDirective) String() string { return cacheControlTable.Name(int8(c)) }
