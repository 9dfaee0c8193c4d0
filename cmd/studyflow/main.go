package main

import (
	"context"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/nstri/studyflow/pkg/log"
	"github.com/nstri/studyflow/pkg/otelhelper"
)

// tracerFor returns the OTLP tracer when --tracing is set, a no-op otherwise.
func tracerFor(ctx context.Context, command *cli.Command) (trace.Tracer, error) {
	if !command.Bool("tracing") {
		return otelhelper.NopTracer(), nil
	}

	return otelhelper.NewTracer(ctx, "studyflow")
}

func main() {
	cmd := &cli.Command{
		Name:                  "studyflow",
		EnableShellCompletion: true,
		Usage:                 "Inspect and manage the study workflow state and schema version history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "persistence-url",
				Usage:   "Persistence URL (file://<dir>, redis://..., postgres://...)",
				Value:   "file://./.studyflow",
				Sources: cli.EnvVars("PERSISTENCE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for store and controller operations",
				Sources: cli.EnvVars("STUDYFLOW_TRACING"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			NewStateCommand(),
			NewHistoryCommand(),
			NewValidateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
