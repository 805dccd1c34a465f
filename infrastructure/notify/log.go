// ABOUTME: Sync notifier that only logs change counts
// ABOUTME: Default when no downstream consumer is configured

package notify

import (
	"context"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
)

// LogNotifier implements SyncNotifier by logging each change set
type LogNotifier struct {
	logger interfaces.Logger
}

// NewLogNotifier creates a notifier writing to logger
func NewLogNotifier(logger interfaces.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the change set and returns immediately
func (n *LogNotifier) Notify(ctx context.Context, changes *domain.ArticleChanges) error {
	if changes.IsEmpty() {
		return nil
	}
	n.logger.Info("Articles changed", map[string]interface{}{
		"feed_url": changes.FeedURL,
		"new":      len(changes.New),
		"updated":  len(changes.Updated),
		"deleted":  len(changes.Deleted),
	})
	return ctx.Err()
}
