package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/burakmert236/arenaview/common/cache"
	"github.com/burakmert236/arenaview/common/config"
	commonevents "github.com/burakmert236/arenaview/common/events"
	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/natsjetstream"
	"github.com/burakmert236/arenaview/common/utils"
	"github.com/burakmert236/arenaview/services/arena-service/app"
)

func main() {
	cliApp := &cli.App{
		Name:  "arena-service",
		Usage: "serve live arena standings from the upstream feed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "directory containing config.yaml", Value: "../config"},
			&cli.StringFlag{Name: "bind", Usage: "HTTP listen address (overrides server.httpaddr)"},
			&cli.BoolFlag{Name: "nocors", Usage: "do not send Access-Control-Allow-Origin"},
			&cli.StringFlag{Name: "source", Usage: "upstream feed: redis or nats"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:      "publish",
				Usage:     "publish an arena document to the configured feed",
				ArgsUsage: "[file]",
				Action:    publish,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("bind") {
		cfg.Server.HTTPAddr = c.String("bind")
	}
	if c.IsSet("nocors") {
		cfg.Server.NoCORS = c.Bool("nocors")
	}
	if c.IsSet("source") {
		cfg.Ingest.Source = c.String("source")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := utils.ShutdownContext(c.Context)
	defer stop()

	application, appErr := app.New(cfg)
	if appErr != nil {
		return fmt.Errorf("failed to initialize application: %w", appErr)
	}
	defer application.Stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("application failed: %w", err)
	}
	return nil
}

// publish sends one arena document, read from a file or stdin, to the
// feed the service would consume.
func publish(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var payload []byte
	if path := c.Args().First(); path != "" && path != "-" {
		payload, err = os.ReadFile(path)
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("document is not JSON: %w", err)
	}
	if doc.ID == "" {
		return errors.New("document has no id")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", ServiceName: "arena-publish"})
	defer log.Sync()

	ctx, stop := utils.ShutdownContext(c.Context)
	defer stop()

	switch cfg.Ingest.Source {
	case config.SourceNATS:
		err = publishNATS(ctx, cfg, log, doc.ID, payload)
	default:
		err = publishRedis(ctx, cfg, payload)
	}
	if err != nil {
		return err
	}

	log.Info("Arena document published", "arena_id", doc.ID, "source", cfg.Ingest.Source, "bytes", len(payload))
	return nil
}

func publishRedis(ctx context.Context, cfg *config.Config, payload []byte) error {
	client := cache.NewRedisClient(cfg.Redis)
	defer client.Close()

	if err := client.GetClient().Publish(ctx, cfg.Redis.Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", cfg.Redis.Channel, err)
	}
	return nil
}

func publishNATS(ctx context.Context, cfg *config.Config, log *logger.Logger, arenaID string, payload []byte) error {
	client, appErr := natsjetstream.NewClient(&natsjetstream.Config{
		URL:           cfg.NATS.URL,
		MaxReconnect:  cfg.NATS.MaxReconnect,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	}, log)
	if appErr != nil {
		return appErr
	}
	defer client.Close()

	// only the newest document of an arena is ever read
	if appErr := client.EnsureStream(ctx, natsjetstream.StreamConfig{
		Name:     cfg.NATS.Stream,
		Subjects: []string{cfg.NATS.Subject},
		KeepLast: 1,
	}); appErr != nil {
		return appErr
	}

	if appErr := natsjetstream.NewPublisher(client).Publish(ctx, commonevents.ArenaFullSubject(arenaID), payload); appErr != nil {
		return appErr
	}
	return nil
}
