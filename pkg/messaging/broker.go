// Package messaging moves appointment lifecycle events between processes.
package messaging

import "context"

// Broker is a publish/subscribe transport. Publish marshals message to JSON
// before sending; Subscribe delivers raw payloads until ctx is done.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
