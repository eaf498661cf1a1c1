package events

import "context"

// Source is an upstream feed of full arena documents.
type Source interface {
	Name() string
	// Open subscribes to the feed. Each call starts a fresh subscription.
	Open(ctx context.Context) (Stream, error)
	// Ping reports whether the upstream is reachable right now.
	Ping(ctx context.Context) error
}

// Stream yields one encoded arena document per call. Any error ends the
// subscription; the stream must then be closed and reopened.
type Stream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}
