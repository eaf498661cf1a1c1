package natsjetstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

type Subscriber struct {
	client *Client
}

func NewSubscriber(client *Client) *Subscriber {
	return &Subscriber{client: client}
}

// MessageStream is a pull iterator over an ordered consumer. Messages are
// delivered in stream order and need no acknowledgement.
type MessageStream struct {
	iter jetstream.MessagesContext
}

// Subscribe creates an ephemeral ordered consumer on cfg.StreamName.
func (s *Subscriber) Subscribe(ctx context.Context, cfg ConsumerConfig) (*MessageStream, error) {
	consumerConfig := jetstream.OrderedConsumerConfig{
		FilterSubjects: cfg.FilterSubjects,
	}
	if cfg.LastPerSubject {
		consumerConfig.DeliverPolicy = jetstream.DeliverLastPerSubjectPolicy
	}

	consumer, err := s.client.js.OrderedConsumer(ctx, cfg.StreamName, consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	iter, err := consumer.Messages()
	if err != nil {
		return nil, fmt.Errorf("failed to start message iterator: %w", err)
	}

	return &MessageStream{iter: iter}, nil
}

// Next blocks until a message arrives, the iterator fails or ctx is done.
func (m *MessageStream) Next(ctx context.Context) (jetstream.Msg, error) {
	stop := context.AfterFunc(ctx, m.iter.Stop)
	defer stop()

	msg, err := m.iter.Next()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, jetstream.ErrMsgIteratorClosed) {
			return nil, ctxErr
		}
		return nil, err
	}
	return msg, nil
}

func (m *MessageStream) Stop() {
	m.iter.Stop()
}
