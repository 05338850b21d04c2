// Package server provides HTTP routing, middleware, and the klix JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] added first runs outermost.
//
// [BasicRouter] registers "METHOD /path" patterns on [http.ServeMux], so a wrong method gets 405 with an
// Allow header. [BasicRouter.Routes] lists what was registered.
//
// # Sessions
//
// Authentication happens upstream. [SessionMiddleware] reads the user ID from [UserHeader] and loads the
// profile fresh on every request; handlers get it with [CurrentUser], which is nil without a session.
//
// # Endpoints
//
//   - POST /api/errors classifies an error for display and reports it to the admin webhook
//   - POST /api/results relays a generation result (202, fire-and-forget)
//   - POST /api/social-posts, POST /api/webhook/test, POST /api/registrations return a services.Result
//   - PUT /api/webhook saves the caller's webhook URL
//   - GET /api/events streams bus events over a websocket to admin sessions from the same origin
//   - GET /health and GET /metrics (Prometheus)
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [EventStream] is registered this way.
package server
