package archiver

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/cta-train-analytics/pkg/config"
	"github.com/travigo/cta-train-analytics/pkg/objectstore"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Re-encode raw delivered train locations into partitioned Parquet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "prefix",
				Usage:    "Object prefix holding the raw JSON objects",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Require(config.MinioEndpointVariable, config.MinioBucketVariable); err != nil {
				return err
			}

			store, err := objectstore.NewMinioStore(cfg.Minio)
			if err != nil {
				return err
			}

			archiver := NewArchiver(store, cfg.Minio.Bucket, cfg.ArchiveDestination, cfg.ArchivePartition, log.Logger)

			result, err := archiver.Perform(c.Context, c.String("prefix"))
			if err != nil {
				return err
			}

			log.Info().
				Int("objects", result.Objects).
				Int("records", result.Records).
				Int("skipped", result.Skipped).
				Msg("Processed all data successfully")

			return nil
		},
	}
}
