package http_server

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/consumer"
)

type HealthCheck func(ctx context.Context) error

// NewStatsApp serves health, Prometheus metrics and rmq queue stats. A nil
// queue connection leaves out the queue stats route.
func NewStatsApp(queues rmq.Connection, health HealthCheck, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(NewLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		if health != nil {
			if err := health(c.UserContext()); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
			}
		}

		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if queues != nil {
		app.Get("/queues/stats", func(c *fiber.Ctx) error {
			html, err := consumer.QueueStatsHTML(queues, c.Query("layout"), c.Query("refresh"))
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
			}

			c.Type("html")
			return c.SendString(html)
		})
	}

	return app
}

// Serve listens until the context is cancelled, then shuts the app down
func Serve(ctx context.Context, app *fiber.App, address string, logger zerolog.Logger) error {
	errChan := make(chan error, 1)

	go func() {
		logger.Info().Str("address", address).Msg("Stats server listening")
		errChan <- app.Listen(address)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return app.Shutdown()
	}
}
