package side

import (
	"context"
	"log/slog"
	"strings"
)

// Request contains route parameters and the payload that followed the tag.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload []byte
}

// Response holds the body written back on success.
type Response struct {
	Body []byte
}

// HandlerFunc processes a request and populates the response.
// Returns an error on failure. The logger provided is a connection-scoped logger
// enriched with remote address metadata by the server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// Router implements simple tag pattern matching with placeholders in {name}.
type Router struct {
	routes []routeEntry
}

type routeEntry struct {
	parts    []string
	names    map[int]string
	original string
	handler  HandlerFunc
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a tag pattern like "keymap/{role}".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	original := strings.Split(pattern, "/")
	e := routeEntry{
		parts:    strings.Split(strings.ToLower(pattern), "/"),
		names:    map[int]string{},
		original: pattern,
		handler:  handler,
	}
	for i, p := range original {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			e.names[i] = p[1 : len(p)-1]
		}
	}
	r.routes = append(r.routes, e)
}

// Match returns the HandlerFunc and params if the given tag matches any
// registered pattern. Returns nil if none match.
func (r *Router) Match(tag string) (HandlerFunc, map[string]string) {
	parts := strings.Split(strings.ToLower(tag), "/")
	for _, rt := range r.routes {
		if len(rt.parts) != len(parts) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i := range parts {
			if name, isParam := rt.names[i]; isParam {
				params[name] = parts[i]
				continue
			}
			if rt.parts[i] != parts[i] {
				ok = false
				break
			}
		}
		if ok {
			return rt.handler, params
		}
	}
	return nil, nil
}

// Patterns returns the registered patterns in registration order.
func (r *Router) Patterns() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.original
	}
	return out
}
