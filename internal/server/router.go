package server

import (
	"net/http"
	"slices"
)

// BasicRouter implements [Router] on [http.ServeMux] method patterns such as "POST /api/errors".
//
// A known path requested with another method gets 405 and an Allow header from the mux. Middleware
// wraps handlers when they are registered, so [BasicRouter.Use] must come first.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	patterns    []string
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware; the first added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path. An empty method matches any method.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := path
	if method != "" {
		pattern = method + " " + path
	}
	r.register(pattern, r.Apply(handler))
}

// Handler registers handler under every pattern from [Handler.Routes].
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, pattern := range handler.Routes() {
		r.register(pattern, wrapped)
	}
}

func (r *BasicRouter) register(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
	r.patterns = append(r.patterns, pattern)
}

// Routes lists the registered patterns in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.patterns)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler in the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
