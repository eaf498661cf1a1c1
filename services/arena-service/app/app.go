package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/burakmert236/arenaview/common/cache"
	"github.com/burakmert236/arenaview/common/config"
	apperrors "github.com/burakmert236/arenaview/common/errors"
	commonevents "github.com/burakmert236/arenaview/common/events"
	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/natsjetstream"
	"github.com/burakmert236/arenaview/services/arena-service/internal/events"
	"github.com/burakmert236/arenaview/services/arena-service/internal/handler"
	"github.com/burakmert236/arenaview/services/arena-service/internal/metrics"
	"github.com/burakmert236/arenaview/services/arena-service/internal/repository"
	"github.com/burakmert236/arenaview/services/arena-service/internal/service"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg          *config.Config
	logger       *logger.Logger
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	arenaRepo    *repository.ArenaRepository
	arenaService service.ArenaService
	source       events.Source
	pipeline     *events.Pipeline
	healthServer *health.Server
	httpServer   *http.Server
	grpcServer   *grpc.Server

	cleanup []func() error
}

func New(cfg *config.Config) (*App, *apperrors.AppError) {
	app := &App{
		cfg:     cfg,
		cleanup: make([]func() error, 0),
	}

	if err := app.initLogger(); err != nil {
		return nil, err
	}

	if err := app.initService(); err != nil {
		return nil, err
	}

	if err := app.initSource(); err != nil {
		app.Stop()
		return nil, err
	}

	if err := app.initPipeline(); err != nil {
		app.Stop()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		app.Stop()
		return nil, err
	}

	if err := app.initGRPC(); err != nil {
		app.Stop()
		return nil, err
	}

	return app, nil
}

func (a *App) initLogger() *apperrors.AppError {
	a.logger = logger.New(logger.Config{
		Level:       a.cfg.Log.Level,
		Format:      a.cfg.Log.Format,
		ServiceName: "arena-service",
	})
	a.cleanup = append(a.cleanup, func() error {
		a.logger.Sync()
		return nil
	})
	return nil
}

func (a *App) initService() *apperrors.AppError {
	a.arenaRepo = repository.NewArenaRepository(repository.Config{
		Capacity: a.cfg.Cache.Capacity,
		TTL:      a.cfg.Cache.TTL,
	}, a.logger)
	a.cleanup = append(a.cleanup, a.arenaRepo.Close)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry, a.arenaRepo.Len)

	a.arenaService = service.NewArenaService(a.arenaRepo, a.metrics, a.logger)
	return nil
}

func (a *App) initSource() *apperrors.AppError {
	switch a.cfg.Ingest.Source {
	case config.SourceRedis:
		redisClient := cache.NewRedisClient(a.cfg.Redis)
		a.cleanup = append(a.cleanup, redisClient.Close)

		channel := a.cfg.Redis.Channel
		if channel == "" {
			channel = commonevents.ArenaFullChannel
		}
		a.source = events.NewRedisSource(redisClient, channel)
		a.logger.Info("Using Redis source", "address", a.cfg.Redis.Address, "channel", channel)

	case config.SourceNATS:
		natsClient, err := natsjetstream.NewClient(&natsjetstream.Config{
			URL:           a.cfg.NATS.URL,
			MaxReconnect:  a.cfg.NATS.MaxReconnect,
			ReconnectWait: a.cfg.NATS.ReconnectWait,
			Timeout:       a.cfg.NATS.Timeout,
		}, a.logger)
		if err != nil {
			return err
		}
		a.cleanup = append(a.cleanup, natsClient.Close)

		stream := a.cfg.NATS.Stream
		if stream == "" {
			stream = commonevents.ArenaFullStream
		}
		subject := a.cfg.NATS.Subject
		if subject == "" {
			subject = commonevents.ArenaFullWildcard
		}
		a.source = events.NewNATSSource(natsClient, stream, subject)
		a.logger.Info("Using NATS source", "url", a.cfg.NATS.URL, "stream", stream, "subject", subject)

	default:
		return apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("unknown ingest source %q", a.cfg.Ingest.Source))
	}

	return nil
}

func (a *App) initPipeline() *apperrors.AppError {
	a.healthServer = handler.NewHealthServer()

	a.pipeline = events.NewPipeline(
		a.source,
		a.arenaService,
		a.cfg.Ingest.Backoff,
		a.metrics,
		a.logger,
		events.WithMaxBackoff(a.cfg.Ingest.MaxBackoff),
		events.WithStateObserver(handler.IngestHealthObserver(a.healthServer)),
	)
	return nil
}

func (a *App) initHTTP() *apperrors.AppError {
	arenaHandler := handler.NewArenaHandler(a.arenaService, a.pipeline, a.metrics, a.logger)

	a.httpServer = &http.Server{
		Addr: a.cfg.Server.HTTPAddr,
		Handler: handler.NewRouter(arenaHandler, handler.RouterConfig{
			NoCORS:   a.cfg.Server.NoCORS,
			Gatherer: a.registry,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

func (a *App) initGRPC() *apperrors.AppError {
	a.grpcServer = handler.NewGRPCServer(a.healthServer, a.logger)
	return nil
}

// Run serves HTTP and gRPC and runs the ingestion pipeline until ctx is
// cancelled or a server fails to start.
func (a *App) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", a.cfg.Server.HTTPAddr)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to listen for HTTP")
	}

	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		_ = httpLis.Close()
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to listen for gRPC")
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := a.pipeline.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", httpLis.Addr().String())
		if err := a.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return apperrors.Wrap(err, apperrors.CodeInternalServer, "HTTP server failed")
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		if err := a.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return apperrors.Wrap(err, apperrors.CodeInternalServer, "gRPC server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.shutdownServers()
		return nil
	})

	a.logger.Info("Application started successfully")
	return g.Wait()
}

func (a *App) shutdownServers() {
	a.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Warn("HTTP shutdown error", "error", err)
	}
	a.healthServer.Shutdown()
	a.grpcServer.GracefulStop()
}

// Stop releases clients in reverse order of creation.
func (a *App) Stop() {
	a.logger.Info("Stopping application...")

	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Error("Cleanup error", "error", err)
		}
	}
	a.cleanup = nil
}
