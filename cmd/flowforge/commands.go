package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/flowforge/pkg/cmd"
	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/config"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/dukex/flowforge/pkg/log"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence/file"
	"github.com/dukex/flowforge/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var errInvalidWorkflow = errors.New("workflow has validation issues")

// GenerateOptions are the flags of the generate command.
type GenerateOptions struct {
	Enrich       bool
	NoDeployment bool
	Format       models.TargetFormat
	Output       string
	GeminiAPIKey string
	GeminiModel  string
}

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Report the validation issues of a workflow file",
		ArgsUsage: "<workflow.json>",
		Action: func(ctx context.Context, command *cli.Command) error {
			service, err := newService(ctx, command, nil)
			if err != nil {
				return err
			}

			return runValidate(command.Root().Writer, service, command.Args().First())
		},
	}
}

func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print the compiled YAML of a workflow file",
		ArgsUsage: "<workflow.json>",
		Action: func(ctx context.Context, command *cli.Command) error {
			service, err := newService(ctx, command, nil)
			if err != nil {
				return err
			}

			return runPreview(command.Root().Writer, service, command.Args().First())
		},
	}
}

func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"g"},
		Usage:     "Generate the workflow document, node artifacts and deployment descriptors",
		ArgsUsage: "<workflow.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "enrich",
				Usage: "Use the Gemini collaborator to produce code and suggestions",
			},
			&cli.BoolFlag{
				Name:  "no-deployment",
				Usage: "Skip Cloud Build, Terraform and deploy script generation",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Workflow document format (yaml, json)",
				Value: string(models.TargetFormatYAML),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory receiving one sub-directory per workflow",
				Value:   "./generated_workflows",
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
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			opts := GenerateOptions{
				Enrich:       command.Bool("enrich"),
				NoDeployment: command.Bool("no-deployment"),
				Format:       models.TargetFormat(command.String("format")),
				Output:       command.String("output"),
				GeminiAPIKey: command.String("gemini-api-key"),
				GeminiModel:  command.String("gemini-model"),
			}

			var producer collaborator.Producer

			if opts.Enrich {
				var err error

				producer, err = cmd.NewProducer(ctx, log.WithModule("cli"), opts.GeminiAPIKey, opts.GeminiModel)
				if err != nil {
					return err
				}
			}

			service, err := newService(ctx, command, producer, services.WithStore(file.NewStore(opts.Output)))
			if err != nil {
				return err
			}

			return runGenerate(ctx, command.Root().Writer, service, command.Args().First(), opts)
		},
	}
}

func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Log generation events published by the API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("events")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "flowforge-cli", logger)
			if err != nil {
				return err
			}

			if eventBus == nil {
				return errors.New("an event bus is required")
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			for _, eventType := range []events.EventType{
				events.GenerationCompletedEvent,
				events.GenerationFailedEvent,
				events.ArtifactsSavedEvent,
			} {
				if err := eventBus.Handle(eventType, logEvent(logger)); err != nil {
					return err
				}
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return err
			}

			logger.Info("Listening for generation events", "topic", events.Topic)
			<-ctx.Done()

			return nil
		},
	}
}

func logEvent(logger *slog.Logger) func(ctx context.Context, event any) error {
	return func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case *events.GenerationCompleted:
			logger.InfoContext(ctx, "Generation completed",
				"workflow_id", e.WorkflowID,
				"files_count", e.FilesCount,
				"elapsed_seconds", e.ElapsedSeconds,
				"enriched", e.Enriched,
			)
		case *events.GenerationFailed:
			logger.WarnContext(ctx, "Generation failed", "workflow_id", e.WorkflowID, "error", e.Error)
		case *events.ArtifactsSaved:
			logger.InfoContext(ctx, "Artifacts saved", "workflow_id", e.WorkflowID, "location", e.Location, "files_count", e.FilesCount)
		}

		return nil
	}
}

func newService(ctx context.Context, command *cli.Command, producer collaborator.Producer, opts ...services.Option) (*services.Generation, error) {
	logger := log.Setup(command.String("log-level"))

	defaults, err := config.LoadDefaults(command.String("config"))
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Loaded defaults", "project_id", defaults.DefaultProjectID, "region", defaults.DefaultRegion)

	return services.NewGeneration(logger, producer, append(opts, services.WithDefaults(defaults))...), nil
}

func readWorkflow(path string) (*models.Workflow, error) {
	if path == "" {
		return nil, errors.New("a workflow file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &workflow, nil
}

func runValidate(w io.Writer, service *services.Generation, path string) error {
	workflow, err := readWorkflow(path)
	if err != nil {
		return err
	}

	report := service.Validate(workflow)

	fmt.Fprintln(w, report.Message)

	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}

	if !report.IsValid {
		return errInvalidWorkflow
	}

	return nil
}

func runPreview(w io.Writer, service *services.Generation, path string) error {
	workflow, err := readWorkflow(path)
	if err != nil {
		return err
	}

	preview, err := service.Preview(workflow)
	if err != nil {
		return err
	}

	if preview.Content == nil {
		fmt.Fprintln(w, preview.Message)

		for _, issue := range preview.ValidationIssues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}

		return errInvalidWorkflow
	}

	_, err = io.WriteString(w, *preview.Content)

	return err
}

func runGenerate(ctx context.Context, w io.Writer, service *services.Generation, path string, opts GenerateOptions) error {
	workflow, err := readWorkflow(path)
	if err != nil {
		return err
	}

	if opts.Format != models.TargetFormatYAML && opts.Format != models.TargetFormatJSON {
		return fmt.Errorf("unsupported format %q", opts.Format)
	}

	result, err := service.Generate(ctx, &models.GenerationRequest{
		Workflow:          workflow,
		TargetFormat:      opts.Format,
		IncludeDeployment: !opts.NoDeployment,
		Enrich:            opts.Enrich,
	})
	if err != nil {
		for _, issue := range services.StructuralIssues(err) {
			fmt.Fprintf(w, "  - %s\n", issue)
		}

		return err
	}

	location, err := service.Save(ctx, result.WorkflowID, result.AllFiles(), "")
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Generated %d files in %s (%.2fs)\n", result.FilesCount(), location, result.ElapsedSeconds)

	for _, suggestion := range result.Suggestions {
		fmt.Fprintf(w, "  * %s\n", suggestion)
	}

	return nil
}
