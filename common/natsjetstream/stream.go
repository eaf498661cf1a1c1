package natsjetstream

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"

	apperrors "github.com/burakmert236/arenaview/common/errors"
)

type StreamConfig struct {
	Name     string
	Subjects []string
	// KeepLast bounds how many messages are retained per subject; 0 keeps
	// the server default.
	KeepLast int64
}

// EnsureStream creates the stream or updates it to match cfg.
func (c *Client) EnsureStream(ctx context.Context, cfg StreamConfig) *apperrors.AppError {
	streamConfig := jetstream.StreamConfig{
		Name:     cfg.Name,
		Subjects: cfg.Subjects,
	}
	if cfg.KeepLast > 0 {
		streamConfig.MaxMsgsPerSubject = cfg.KeepLast
	}

	if _, err := c.js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "failed to create stream "+cfg.Name)
	}
	return nil
}
