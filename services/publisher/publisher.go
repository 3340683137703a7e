package publisher

import "context"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish appends values to the stream selected by shardKey
	Publish(ctx context.Context, shardKey string, values map[string]interface{}) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
