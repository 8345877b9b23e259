package dispatch

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/cta-train-analytics/pkg/config"
	"github.com/travigo/cta-train-analytics/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "dispatch",
		Usage: "Publish a train status trigger for every train line",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			lines, err := cfg.Lines()
			if err != nil {
				return err
			}

			connection, err := redis_client.Connect(c.Context, cfg.Redis, "dispatch", log.Logger)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer connection.Client.Close()

			queue, err := connection.Queues.OpenQueue(cfg.QueueName)
			if err != nil {
				return err
			}

			if _, err := NewDispatcher(queue, lines, log.Logger).Dispatch(c.Context); err != nil {
				return err
			}

			log.Info().Msg(ResponseBody)

			return nil
		},
	}
}
