package main

import (
	"context"
	"os"

	"github.com/dukex/flowforge/pkg/config"
	cli "github.com/urfave/cli/v3"
)

func main() {
	_ = config.LoadEnv()

	command := &cli.Command{
		Name:                  "flowforge",
		Usage:                 "Validate, preview and generate Cloud Workflows from workflow graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with default_project_id, default_region and function_runtime",
				Sources: cli.EnvVars("FLOWFORGE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			ValidateCommand(),
			PreviewCommand(),
			GenerateCommand(),
			EventsCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
