// ABOUTME: Sync notifier that publishes article changes on a Redis pub/sub channel
// ABOUTME: Subscribers receive one JSON message per feed with new, updated and deleted articles

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digests-refresher/core/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured
const DefaultChannel = "digests:articles"

// publisher is the subset of the Redis client the notifier needs
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Message is the payload published for each persisted change set
type Message struct {
	FeedURL     string           `json:"feed_url"`
	PublishedAt time.Time        `json:"published_at"`
	New         []domain.Article `json:"new,omitempty"`
	Updated     []domain.Article `json:"updated,omitempty"`
	Deleted     []string         `json:"deleted,omitempty"`
}

// RedisNotifier implements SyncNotifier over Redis pub/sub
type RedisNotifier struct {
	client  publisher
	channel string
}

// NewRedisNotifier creates a notifier publishing on channel
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return newRedisNotifier(client, channel)
}

func newRedisNotifier(client publisher, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the change set. Empty change sets are not published.
func (n *RedisNotifier) Notify(ctx context.Context, changes *domain.ArticleChanges) error {
	if changes.IsEmpty() {
		return nil
	}

	payload, err := json.Marshal(newMessage(changes))
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}

	// Zero receivers is not an error
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish changes for %s: %w", changes.FeedURL, err)
	}
	return nil
}

func newMessage(changes *domain.ArticleChanges) Message {
	msg := Message{
		FeedURL:     changes.FeedURL,
		PublishedAt: time.Now().UTC(),
		New:         changes.New,
		Updated:     changes.Updated,
	}
	for _, a := range changes.Deleted {
		msg.Deleted = append(msg.Deleted, a.ArticleID)
	}
	return msg
}
