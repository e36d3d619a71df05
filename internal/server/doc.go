// Package server exposes the artist watch engine over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a request with the wrong method
// receives 405 and path wildcards are read with [http.Request.PathValue].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [ArtistHandler] serves artist lookups and downloads. [WatchHandler] serves watchlist membership, check
// triggers, the scheduler status and the live watch settings.
//
// # Errors
//
// Service errors map to status codes by sentinel: a disabled feature is 403, validation errors are 400,
// unknown artists and failed metadata lookups are 404, and a full or stopped scheduler is 503.
// Bodies are always JSON.
package server
