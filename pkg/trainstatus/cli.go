package trainstatus

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/cta-train-analytics/pkg/config"
	"github.com/travigo/cta-train-analytics/pkg/consumer"
	"github.com/travigo/cta-train-analytics/pkg/cta"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/http_server"
	"github.com/travigo/cta-train-analytics/pkg/ingest"
	"github.com/travigo/cta-train-analytics/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

var lineFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "abbrev",
		Usage: "Train line abbreviation used by the CTA API",
	},
	&cli.StringFlag{
		Name:  "line",
		Usage: "Train line name used in train IDs",
	},
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "train-status",
		Usage: "Fetch CTA train positions and deliver them to the ingest sink",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the queue workers and stats server",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := cfg.Require(config.APIKeyVariable, config.DeliveryStreamVariable); err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					logger := log.Logger.With().Str("queue", cfg.QueueName).Logger()

					connection, err := redis_client.Connect(ctx, cfg.Redis, "train-status", logger)
					if err != nil {
						return fmt.Errorf("connect redis: %w", err)
					}
					defer connection.Client.Close()

					handler, closeSink, err := newHandler(ctx, cfg, logger)
					if err != nil {
						return err
					}
					defer closeSink(context.Background())

					runner := &consumer.RedisConsumer{
						Connection:      connection.Queues,
						QueueName:       cfg.QueueName,
						NumberConsumers: cfg.Consumers,
						Consumer: &Consumer{
							Handler: handler,
							Timeout: cfg.InvocationTimeout,
							Logger:  logger,
							Context: context.Background(),
						},
						Logger: logger,
					}
					if _, err := runner.Start(); err != nil {
						return err
					}

					app := http_server.NewStatsApp(connection.Queues, func(ctx context.Context) error {
						return connection.Client.Ping(ctx).Err()
					}, logger)

					err = http_server.Serve(ctx, app, cfg.StatsListen, logger)

					// in-flight invocations finish before the connections close
					runner.Stop()

					return err
				},
			},
			{
				Name:  "cleaner",
				Usage: "return deliveries of dead workers to the queue",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					connection, err := redis_client.Connect(ctx, cfg.Redis, "train-status-cleaner", log.Logger)
					if err != nil {
						return fmt.Errorf("connect redis: %w", err)
					}
					defer connection.Client.Close()

					consumer.RunCleaner(ctx, connection.Queues, consumer.DefaultCleanInterval, log.Logger)

					return nil
				},
			},
			{
				Name:  "invoke",
				Usage: "run one invocation locally for a line, or for every line with --all",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "invoke every configured line concurrently",
					},
				}, lineFlags...),
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := cfg.Require(config.APIKeyVariable, config.DeliveryStreamVariable); err != nil {
						return err
					}

					lines := []ctdf.TrainLine{{Code: c.String("abbrev"), Name: c.String("line")}}
					if c.Bool("all") {
						if lines, err = cfg.Lines(); err != nil {
							return err
						}
					}

					handler, closeSink, err := newHandler(c.Context, cfg, log.Logger)
					if err != nil {
						return err
					}
					defer closeSink(context.Background())

					return InvokeLines(c.Context, handler, lines, cfg.Consumers, cfg.InvocationTimeout, log.Logger)
				},
			},
			{
				Name:  "fetch",
				Usage: "print the normalised locations of a line without delivering them",
				Flags: lineFlags,
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := cfg.Require(config.APIKeyVariable); err != nil {
						return err
					}

					handler := &Handler{
						Client:   cta.NewClient(cfg.APIKey, log.Logger),
						Location: cfg.Timezone,
						Logger:   log.Logger,
					}

					records, err := handler.Locations(c.Context, ctdf.TrainLine{Code: c.String("abbrev"), Name: c.String("line")})
					if err != nil {
						return err
					}

					pretty.Fprintf(os.Stdout, "%# v\n", records)

					return nil
				},
			},
		},
	}
}

func newHandler(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Handler, func(context.Context) error, error) {
	sink, closeSink, err := OpenSink(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return &Handler{
		Client:              cta.NewClient(cfg.APIKey, logger),
		Writer:              ingest.NewWriter(sink, cfg.DeliveryStream, logger),
		MaxDeliveryAttempts: cfg.MaxDeliveryAttempts,
		Location:            cfg.Timezone,
		Logger:              logger,
	}, closeSink, nil
}

// InvokeLines runs the handler for each line, at most parallelism at a time,
// and returns the joined errors of every failed line
func InvokeLines(ctx context.Context, handler *Handler, lines []ctdf.TrainLine, parallelism int, timeout time.Duration, logger zerolog.Logger) error {
	if parallelism < 1 {
		parallelism = 1
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(parallelism)

	for _, line := range lines {
		p.Go(func(ctx context.Context) error {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			body, err := EncodeTrigger(line)
			if err != nil {
				return err
			}

			response, err := handler.Handle(ctx, body)
			if err != nil {
				return fmt.Errorf("%s: %w", line.Name, err)
			}

			logger.Info().Str("line", line.Name).Int("status", response.StatusCode).Str("body", response.Body).Msg("Invocation finished")
			return nil
		})
	}

	return p.Wait()
}
