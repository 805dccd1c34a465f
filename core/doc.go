// Package core contains the business logic for the Digests refresher.
// It is designed to be framework-agnostic and can be used independently
// of any web framework or infrastructure concerns.
//
// The core package is organized into several sub-packages:
//
// - domain: Pure domain models (Feed, ParsedFeed, Article, ArticleChanges)
// - delta: Content hashing and conditional GET helpers
// - schedule: Rate-limited host classification, batching and batch timers
// - refresh: The refresher state machine and the run serializer
// - errors: Custom error types for better error handling
// - interfaces: Contracts for external dependencies (cache, HTTP, transport, storage)
//
// # Design Principles
//
// The core package follows clean architecture principles:
// - No external framework dependencies
// - All external dependencies are injected via interfaces
// - Business logic is testable in isolation
// - Domain models are free from persistence concerns
//
// # Usage Example
//
//	import (
//	    "digests-refresher/core/interfaces"
//	    "digests-refresher/core/refresh"
//	    "digests-refresher/core/schedule"
//	)
//
//	// Create dependencies
//	deps := interfaces.Dependencies{
//	    HTTPClient: myHTTPClient, // implements interfaces.HTTPClient
//	    Logger:     myLogger,     // implements interfaces.Logger
//	    Parser:     myParser,     // implements interfaces.Parser
//	    Storage:    myStorage,    // implements interfaces.Storage
//	}
//
//	// Create refresher
//	refresher := refresh.NewRefresher(deps, refresh.Options{
//	    Policy:       schedule.DefaultPolicy(),
//	    NewTransport: myTransportFactory,
//	})
//
//	// Refresh feeds and wait for every batch
//	err := refresher.RefreshContext(ctx, feeds)
package core
