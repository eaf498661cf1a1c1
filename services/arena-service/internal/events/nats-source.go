package events

import (
	"context"

	apperrors "github.com/burakmert236/arenaview/common/errors"
	"github.com/burakmert236/arenaview/common/natsjetstream"
)

// NATSSource reads arena documents from a JetStream stream through an
// ordered consumer, replaying the newest document of each arena subject on
// every (re)subscription.
type NATSSource struct {
	client     *natsjetstream.Client
	subscriber *natsjetstream.Subscriber
	cfg        natsjetstream.ConsumerConfig
}

func NewNATSSource(client *natsjetstream.Client, streamName string, subjects ...string) *NATSSource {
	return &NATSSource{
		client:     client,
		subscriber: natsjetstream.NewSubscriber(client),
		cfg: natsjetstream.ConsumerConfig{
			StreamName:     streamName,
			FilterSubjects: subjects,
			LastPerSubject: true,
		},
	}
}

func (s *NATSSource) Name() string {
	return "nats"
}

// Ping reports the connection state; the client reconnects on its own.
func (s *NATSSource) Ping(ctx context.Context) error {
	if !s.client.IsConnected() {
		return apperrors.New(apperrors.CodeServiceUnavailable, "nats is not connected")
	}
	return nil
}

func (s *NATSSource) Open(ctx context.Context) (Stream, error) {
	stream, err := s.subscriber.Subscribe(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	return &natsStream{stream: stream}, nil
}

type natsStream struct {
	stream *natsjetstream.MessageStream
}

func (n *natsStream) Next(ctx context.Context) ([]byte, error) {
	msg, err := n.stream.Next(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Data(), nil
}

func (n *natsStream) Close() error {
	n.stream.Stop()
	return nil
}
