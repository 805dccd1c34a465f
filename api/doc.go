// Package api provides the HTTP control API for the Digests refresher.
// It uses the Huma framework to provide automatic OpenAPI documentation,
// request/response validation, and a clean handler interface.
//
// # Architecture
//
// The API package is structured as follows:
//
// - server.go: Huma API configuration and setup
// - handlers/: HTTP request handlers
// - dto/: Data Transfer Objects for responses
// - middleware/: HTTP middleware for cross-cutting concerns
//
// # Endpoints
//
// - GET /status: current run and refresher activity
// - POST /refresh: start a run (409 while one is active or suspended)
// - POST /suspend, POST /resume: pause and resume work
// - GET /articles: stored articles of a feed
//
// The OpenAPI spec is served at /openapi.json and the docs at /docs.
//
// # Middleware
//
// The API includes middleware for:
// - Request logging with unique request IDs
// - Rate limiting per IP address
// - CORS handling
//
// # Usage Example
//
//	cfg := api.APIConfig{
//	    Logger:     logger,
//	    RateLimit:  100,
//	    RateWindow: time.Minute,
//	    Controller: runner,
//	    Articles:   store,
//	}
//	_, router, limiter := api.NewAPIWithMiddleware(cfg)
//	defer limiter.Stop()
//
//	http.ListenAndServe(":8000", router)
//
// # Error Handling
//
// The API uses a consistent error format based on RFC 7807:
//
//	{
//	    "status": 409,
//	    "title": "Conflict",
//	    "detail": "a refresh is already running"
//	}
//
// Domain errors are automatically mapped to appropriate HTTP status codes.
package api
