package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
	arenaerrors "github.com/burakmert236/arenaview/services/arena-service/internal/errors"
	"github.com/burakmert236/arenaview/services/arena-service/internal/metrics"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
)

var stateNames = map[State]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateSubscribed:   "subscribed",
}

func (s State) String() string {
	return stateNames[s]
}

// Ingester decodes and stores one arena document.
type Ingester interface {
	Ingest(ctx context.Context, payload []byte) (*models.Snapshot, error)
}

type Option func(*Pipeline)

// WithStateObserver registers fn to be called on every state change, from
// the pipeline goroutine.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, fn)
	}
}

// WithMaxBackoff caps the retry delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(p *Pipeline) {
		p.backoff.MaxInterval = d
	}
}

// WithStableAfter sets how long a subscription must stay up before its
// failure is retried at once instead of backing off.
func WithStableAfter(d time.Duration) Option {
	return func(p *Pipeline) {
		p.stableAfter = d
	}
}

// Pipeline is the only writer of arena snapshots. It keeps a subscription
// to the upstream feed alive for as long as Run's context lives.
type Pipeline struct {
	source      Source
	ingester    Ingester
	backoff     *backoff.ExponentialBackOff
	stableAfter time.Duration
	metrics     *metrics.Metrics
	logger      *logger.Logger

	observers []func(State)
	state     atomic.Int32
	messages  atomic.Uint64
}

// NewPipeline retries failures after retryInterval, growing the delay
// while the upstream keeps failing.
func NewPipeline(
	source Source,
	ingester Ingester,
	retryInterval time.Duration,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	opts ...Option,
) *Pipeline {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInterval
	b.MaxInterval = 30 * retryInterval
	b.MaxElapsedTime = 0

	p := &Pipeline{
		source:      source,
		ingester:    ingester,
		backoff:     b,
		stableAfter: retryInterval,
		metrics:     metrics,
		logger:      logger.With("component", "ingestion-pipeline", "source", source.Name()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.backoff.Reset()
	return p
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Messages counts documents received from upstream, good or bad.
func (p *Pipeline) Messages() uint64 {
	return p.messages.Load()
}

// Ping reports whether the upstream is reachable right now.
func (p *Pipeline) Ping(ctx context.Context) error {
	return p.source.Ping(ctx)
}

// Run subscribes, consumes and resubscribes until ctx is cancelled. Failures
// never end the loop; it returns ctx's error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("Starting ingestion")
	p.setState(StateDisconnected)

	for {
		p.setState(StateConnecting)

		var uptime time.Duration
		stream, err := p.source.Open(ctx)
		if err == nil {
			p.setState(StateSubscribed)
			p.logger.Info("Subscribed to upstream")

			started := time.Now()
			err = p.consume(ctx, stream)
			uptime = time.Since(started)
			if closeErr := stream.Close(); closeErr != nil {
				p.logger.Warn("Failed to close stream", "error", closeErr)
			}
		}

		p.setState(StateDisconnected)
		if ctx.Err() != nil {
			p.logger.Info("Ingestion stopped")
			return ctx.Err()
		}

		p.metrics.StreamErrors.Inc()
		err = arenaerrors.StreamFailed(err, p.source.Name())

		// Only a subscription that held up for a while earns an immediate
		// retry and a fresh backoff.
		if uptime >= p.stableAfter {
			p.backoff.Reset()
			p.logger.Warn("Upstream stream ended, reconnecting", "error", err, "uptime", uptime)
			continue
		}

		wait := p.backoff.NextBackOff()
		if wait == backoff.Stop {
			wait = p.backoff.MaxInterval
		}
		p.logger.Warn("Upstream unavailable, retrying", "error", err, "retry_in", wait)
		if !sleep(ctx, wait) {
			p.logger.Info("Ingestion stopped")
			return ctx.Err()
		}
	}
}

// consume feeds documents to the ingester until the stream fails. Bad
// documents are logged and skipped.
func (p *Pipeline) consume(ctx context.Context, stream Stream) error {
	for {
		payload, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		p.messages.Add(1)

		snapshot, err := p.ingester.Ingest(ctx, payload)
		if err != nil {
			p.logger.Error("Dropping malformed arena document",
				"error", err,
				"bytes", len(payload),
			)
			continue
		}

		p.logger.Debug("Arena updated", "arena_id", snapshot.ID())
	}
}

func (p *Pipeline) setState(s State) {
	if State(p.state.Swap(int32(s))) == s {
		return
	}
	p.metrics.PipelineState.Set(float64(s))
	for _, fn := range p.observers {
		fn(s)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
