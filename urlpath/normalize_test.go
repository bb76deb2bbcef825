package urlpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func norm(s string) string {
	out, ok := Normalize([]byte(s), true)
	if !ok {
		return ""
	}
	return string(out)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"/":                  "/",
		"/index.html":        "/index.html",
		"/a/../b/./c//d":     "/b/c/d",
		"/a/b/../../c":       "/c",
		"/../../a":           "/a",
		"/a/./././b":         "/a/b",
		"/a//b///c":          "/a/b/c",
		"/a/b/c/..":          "/a/b",
		"":                   "/",
		"//":                 "/",
		"*":                  "*",
		"/a/../b/./c//d?x=1": "/b/c/d?x=1",
	}
	for in, want := range cases {
		require.Equal(t, want, norm(in), "input %q", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"/a/../b/./c//d", "/x/y/z", "/..", "/a%20b/c"} {
		once := norm(in)
		require.Equal(t, once, norm(once), "input %q", in)
	}
}

func TestNormalizeNeverEmitsDotSegments(t *testing.T) {
	for _, in := range []string{"/a/../../b", "/./.", "/a/./b/../c/."} {
		got := norm(in)
		require.NotContains(t, got, "/./")
		require.NotContains(t, got, "/../")
		require.NotContains(t, got, "//")
		require.True(t, got == "/" || got[len(got)-1] != '.' || got[len(got)-2] != '/',
			"trailing /. in %q", got)
		require.Equal(t, byte('/'), got[0])
	}
}

func TestNormalizeTooDeep(t *testing.T) {
	deep := make([]byte, 0, MaxDepth*2+4)
	for i := 0; i <= MaxDepth; i++ {
		deep = append(deep, '/', 'a')
	}
	_, ok := Normalize(deep, false)
	require.False(t, ok)
}

func TestDecode(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"a%20b":        "a b",
		"a+b":          "a b",
		"%41%42%43":    "ABC",
		"100%":         "100%",
		"50%4":         "50%4",
		"%zz":          "%zz",
		"%2Fetc":       "/etc",
		"name%3dvalue": "name=value",
	}
	for in, want := range cases {
		buf := []byte(in)
		require.Equal(t, want, string(Decode(buf)), "input %q", in)
	}
}

func TestDecodeIsLeftInverseOfEncodingUnreserved(t *testing.T) {
	// Unreserved characters never need escaping; decoding their escaped
	// form must give them back.
	unreserved := "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~"
	for i := 0; i < len(unreserved); i++ {
		c := unreserved[i]
		const hexDigits = "0123456789ABCDEF"
		enc := []byte{'%', hexDigits[c>>4], hexDigits[c&0xF]}
		got := Decode(enc)
		require.Equal(t, string(c), string(got))
	}
}
