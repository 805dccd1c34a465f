// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the core business logic

package interfaces

// Dependencies holds all external dependencies required by the core business logic
type Dependencies struct {
	// Cache provides key/value storage for infrastructure adapters
	Cache Cache

	// HTTPClient provides HTTP request functionality
	HTTPClient HTTPClient

	// Logger provides structured logging
	Logger Logger

	// Parser turns downloaded bytes into a structured feed
	Parser Parser

	// Storage reconciles parsed feeds against stored articles
	Storage Storage

	// Notifier receives article changes once they are persisted
	Notifier SyncNotifier

	// StateStore persists per-feed fetch metadata between runs (optional)
	StateStore FeedStateStore

	// Observer is told when each feed request finishes (optional)
	Observer RefreshObserver
}
