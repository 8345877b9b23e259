package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/cta-train-analytics/pkg/archiver"
	"github.com/travigo/cta-train-analytics/pkg/dispatch"
	"github.com/travigo/cta-train-analytics/pkg/trainstatus"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("CTA_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("CTA_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "cta-train-analytics",
		Description: "Polls CTA train positions per line and delivers them to the ingest sink",

		Commands: []*cli.Command{
			dispatch.RegisterCLI(),
			trainstatus.RegisterCLI(),
			archiver.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
