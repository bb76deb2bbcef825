package server

import (
	"bytes"

	"github.com/freekieb7/pebble/buffer"
	"github.com/freekieb7/pebble/http"
)

// Handler processes one accepted request with the route's parsed header
// set. Returning false turns into a connection-terminating error unless
// the handler already answered.
type Handler func(c *Client, headers *http.HeaderSet) bool

// Route pairs a method mask and path prefix with its handler and the
// fixed header set the handler cares about. An empty path is the
// wildcard, matching every target (file serving, catch-alls).
type Route struct {
	methods http.MethodMask
	path    string
	handler Handler
	set     *http.HeaderSet
}

// NewRoute declares a route. The header set is built once, here; the
// implicit members come from the method mask.
func NewRoute(methods http.MethodMask, path string, handler Handler, headers ...http.Header) *Route {
	return &Route{
		methods: methods,
		path:    path,
		handler: handler,
		set:     http.NewHeaderSet(methods, headers...),
	}
}

// Accept is the cheap pre-check: method bit and path prefix. Asterisk
// targets never match a path route.
func (r *Route) Accept(c *Client) bool {
	if !r.methods.Has(c.ReqLine.Method) {
		return false
	}
	if r.path == "" {
		return true
	}
	if c.ReqLine.URI.AppliesToAllResources() {
		return false
	}
	p := c.ReqLine.URI.AbsolutePath
	return len(p) >= len(r.path) && string(p[:len(r.path)]) == r.path
}

// Parse runs the route's header parsing over the client's buffer and,
// once the block is complete, the handler.
func (r *Route) Parse(c *Client) ClientState {
	set := r.set
	var state ClientState
	if c.Status() == StatusHeadersDone && !c.HasPersistedHeaders() {
		// The whole block sits in the transient area.
		set.Reset()
		state = parseHeaderBlock(c, set, false)
	} else {
		if !c.HasPersistedHeaders() {
			// First pass of a block that will not fit in one go.
			set.Reset()
		}
		c.RouteFound(set)
		state = parseHeaderBlock(c, set, true)
	}

	switch state {
	case StateNeedRefill:
		return c.SaveHeaders(set)
	case StateProcessing:
		if r.handler(c, set) {
			return StateDone
		}
		if c.Status() != StatusReqDone {
			c.CloseWithError(http.CodeInternalServerError)
		}
		return StateError
	}
	return state
}

// parseHeaderBlock walks header lines, skipping names outside the set
// and parsing the rest into their slots. In persist mode every parsed
// value's string views go to the vault and the consumed bytes are
// dropped, so the transient area can be refilled.
func parseHeaderBlock(c *Client, set *http.HeaderSet, persist bool) ClientState {
	input := c.Recv.Transient()

	for {
		if bytes.HasPrefix(input, crlf) {
			// End of the block: drop it and everything before it, the
			// body (if any) starts right after.
			c.Recv.Drop(c.Recv.Size() - len(input) + 2)
			return StateProcessing
		}
		if persist && !bytes.Contains(input, crlf) {
			if c.Recv.Size() == len(input) && c.Recv.FreeSize() == 0 {
				// A single line fills the whole transient area; it can
				// never complete no matter how often we refill.
				c.CloseWithError(http.CodeEntityTooLarge)
				return StateError
			}
			// Incomplete trailing line: drop what was consumed and ask
			// for a refill.
			c.Recv.Drop(c.Recv.Size() - len(input))
			return StateNeedRefill
		}

		var name []byte
		if st := http.ParseHeaderName(&input, &name); st != http.MoreData {
			break
		}

		h := set.Accept(name)
		if h == http.HeaderInvalid {
			if http.SkipHeaderValue(&input) != http.MoreData {
				break
			}
			continue
		}

		if st := set.AcceptAndParse(name, &input); st == http.InvalidRequest {
			c.CloseWithError(http.CodeNotAcceptable)
			return StateError
		}

		if persist {
			var arr buffer.PersistArray
			idx := 0
			set.Get(h).StringsToPersist(&arr, &idx)
			if idx > 0 {
				consumed := c.Recv.Size() - len(input)
				if !buffer.PersistStrings(&arr, c.Recv, consumed) {
					c.CloseWithError(http.CodeInternalServerError)
					return StateError
				}
				input = c.Recv.Transient()
			}
		}
	}

	c.CloseWithError(http.CodeBadRequest)
	return StateError
}

// Router evaluates routes in declared order; the first whose Accept
// passes wins the request.
type Router struct {
	routes []*Route
}

func NewRouter() *Router { return &Router{} }

// Handle registers a route.
func (rt *Router) Handle(methods http.MethodMask, path string, handler Handler, headers ...http.Header) *Router {
	rt.routes = append(rt.routes, NewRoute(methods, path, handler, headers...))
	return rt
}

// Add registers an already built route.
func (rt *Router) Add(r *Route) *Router {
	rt.routes = append(rt.routes, r)
	return rt
}

// Process matches the client's request against the routes. Without a
// match the answer is 404.
func (rt *Router) Process(c *Client) ClientState {
	if c.Status() < StatusNeedRefillHeaders {
		return StateError
	}
	for _, r := range rt.routes {
		if r.Accept(c) {
			return r.Parse(c)
		}
	}
	c.CloseWithError(http.CodeNotFound)
	return StateError
}
