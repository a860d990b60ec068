package main

import (
	"context"
	"os"

	"github.com/dukex/flowforge/pkg/cmd"
	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/config"
	"github.com/dukex/flowforge/pkg/log"
	"github.com/dukex/flowforge/pkg/otelhelper"
	"github.com/dukex/flowforge/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8000

func main() {
	_ = config.LoadEnv()

	command := &cli.Command{
		Name:                  "flowforge-api",
		Usage:                 "Compile workflow graphs into Cloud Workflows and deployment artifacts",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "storage-url",
				Usage:   "Destination of saved artifacts (directory, file://, s3://, redis://, postgres://)",
				Value:   "./generated_workflows",
				Sources: cli.EnvVars("STORAGE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka); empty disables events",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Usage:   "Gemini API key used for enriched generation",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "gemini-model",
				Usage:   "Gemini model used for enriched generation",
				Value:   collaborator.DefaultGeminiModel,
				Sources: cli.EnvVars("GEMINI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with default_project_id, default_region and function_runtime",
				Sources: cli.EnvVars("FLOWFORGE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Flowforge API")

			defaults, err := config.LoadDefaults(command.String("config"))
			if err != nil {
				return err
			}

			store, err := cmd.NewStore(ctx, logger, command.String("storage-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close store", "error", err)
				}
			}()

			producer, err := cmd.NewProducer(ctx, logger, command.String("gemini-api-key"), command.String("gemini-model"))
			if err != nil {
				return err
			}

			opts := []services.Option{
				services.WithDefaults(defaults),
				services.WithStore(store),
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "flowforge-api", logger)
			if err != nil {
				return err
			}

			if eventBus != nil {
				defer func() {
					if err := eventBus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()

				opts = append(opts, services.WithEventPublisher(eventBus))
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "flowforge-api")
				if err != nil {
					return err
				}

				opts = append(opts, services.WithTracer(tracer))
			}

			api := NewAPI(logger, services.NewGeneration(logger, producer, opts...))

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
