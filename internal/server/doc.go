// Package server is the HTTP surface of the playback proxy: routing, middleware, the OAuth callback, the pairing
// endpoints and the playback commands.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers "METHOD /path"
// patterns on an [http.ServeMux], so wrong methods get 405 and path wildcards are read with [http.Request.PathValue].
//
// [Middleware] wraps handlers in reverse order (last added executes first). Every request passes through
// [RequestID], [AccessLog] and [Recover]; the two credential endpoints are additionally wrapped by a per client
// [RateLimiter].
//
// # Errors
//
// Handlers return sentinel errors from the shared package and respond.go maps them to a status with a
// {"detail": "..."} body:
//
//	ErrNotConfigured, ErrNotAuthenticated           401
//	ErrNoActiveDevice, ErrSessionNotFound           404
//	ErrSessionUsed, ErrSessionNotReady,
//	ErrInvalidCredentials, ErrInvalidArgument       400
//	UpstreamError and anything else                 500
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the browser side of the authorization code flow. /api/auth/url issues a single use
// state from the [StateStore]; /callback checks it, exchanges the code through the auth manager and redirects to
// /?success=true or /?error=<reason>.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
