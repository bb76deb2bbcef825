// Package urlpath rewrites request paths in place: segment
// simplification and percent-decoding both shrink their input, so the
// output is a view into the same mutable storage the input came from;
// the one exception is a path that reduces to the root, which Normalize
// returns as a fresh "/" slice. Never call these on read-only bytes.
package urlpath

// MaxDepth bounds how many path segments a request may carry.
const MaxDepth = 128

type segmentType uint8

const (
	segEmpty segmentType = iota
	segSelf
	segParent
	segChild
)

type segment struct {
	data []byte
	typ  segmentType
	keep bool
}

func classify(data []byte) segmentType {
	switch {
	case len(data) == 0:
		return segEmpty
	case len(data) == 1 && data[0] == '.':
		return segSelf
	case len(data) == 2 && data[0] == '.' && data[1] == '.':
		return segParent
	default:
		return segChild
	}
}

// Normalize simplifies path in place: empty and "." segments vanish,
// ".." pops the previous kept segment, leading ".." against the root is
// dropped. With fixEncoding the result is percent-decoded too. It
// returns the rewritten view and false when the path nests deeper than
// MaxDepth.
func Normalize(path []byte, fixEncoding bool) ([]byte, bool) {
	var segments [MaxDepth]segment
	ip := 0

	rest := path
	for len(rest) > 0 {
		cut := -1
		for i, c := range rest {
			if c == '/' {
				cut = i
				break
			}
		}
		var seg []byte
		if cut >= 0 {
			seg = rest[:cut]
			rest = rest[cut+1:]
		} else {
			seg = rest
			rest = nil
		}
		typ := classify(seg)
		if typ == segEmpty || typ == segSelf {
			continue
		}
		if ip >= MaxDepth {
			return nil, false
		}
		segments[ip] = segment{data: seg, typ: typ, keep: true}
		ip++
	}

	if ip == 0 {
		return []byte("/"), true
	}

	// Parent segments against the root have nothing to pop.
	first := 0
	for first < ip && segments[first].typ == segParent {
		first++
	}

	ptr := first
	for i := first; i < ip; i++ {
		switch segments[i].typ {
		case segChild:
			ptr = i
		case segParent:
			segments[ptr].keep = false
			for ptr > 0 {
				ptr--
				if segments[ptr].typ == segChild && segments[ptr].keep {
					break
				}
			}
		}
	}

	// Compact the kept segments back into the input storage. Sources are
	// always at or after their destination, so the left-to-right copy is
	// safe.
	length := 0
	for i := first; i < ip; i++ {
		if !segments[i].keep || segments[i].typ != segChild {
			continue
		}
		if i > 0 || &segments[i].data[0] != &path[0] {
			path[length] = '/'
			length++
		}
		length += copy(path[length:], segments[i].data)
	}

	if length == 0 {
		// Every segment cancelled out; the path stays rooted.
		return []byte("/"), true
	}
	out := path[:length]
	if fixEncoding {
		out = Decode(out)
	}
	return out, true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// Decode percent-decodes input in place ('+' becomes a space) and
// returns the shortened view. Incomplete or non-hex escapes pass through
// untouched.
func Decode(input []byte) []byte {
	i, o := 0, 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == '+':
			input[o] = ' '
			o++
		case c != '%' || i >= len(input)-2:
			input[o] = c
			o++
		default:
			first := input[i+1]
			if !isHex(first) || !isHex(input[i+2]) {
				input[o] = c
				o++
			} else {
				input[o] = hexVal(first)<<4 | hexVal(input[i+2])
				o++
				i += 2
			}
		}
		i++
	}
	return input[:o]
}
