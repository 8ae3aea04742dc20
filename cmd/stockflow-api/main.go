package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockflow-io/stockflow/pkg/cmd"
	"github.com/stockflow-io/stockflow/pkg/log"
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/monitor"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/otelhelper"
	"github.com/stockflow-io/stockflow/pkg/scheduler"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "stockflow-api",
		Usage:                 "Manage workflows, alerts, and scheduled tasks",
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
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base application URL used in notification links",
				Value:   "http://localhost:3000",
				Sources: cli.EnvVars("BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "smtp-host",
				Usage:   "SMTP server host for outbound email",
				Sources: cli.EnvVars("SMTP_HOST"),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Usage:   "SMTP server port",
				Value:   587,
				Sources: cli.EnvVars("SMTP_PORT"),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "Default outbound sender identity",
				Value:   "alerts@stockflow.local",
				Sources: cli.EnvVars("SMTP_FROM"),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP authentication password",
				Sources: cli.EnvVars("SMTP_PASSWORD"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing export",
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

			logger.InfoContext(ctx, "Initializing Stockflow API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				var err error

				tracer, err = otelhelper.NewTracer(ctx, "stockflow-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
					return err
				}
			}

			channel := notifier.NewSMTPChannel(notifier.SMTPConfig{
				Host:     command.String("smtp-host"),
				Port:     command.Int("smtp-port"),
				From:     command.String("smtp-from"),
				Password: command.String("smtp-password"),
			}, logger)

			dispatcher := notifier.NewDispatcher(persistence, channel, command.String("base-url"), logger)
			mon := monitor.NewMonitor(persistence, dispatcher, models.DefaultAlertRules(), tracer, logger)
			registry := cmd.NewRegistry(logger, persistence, dispatcher, mon, channel)
			sched := scheduler.NewScheduler(persistence, registry, dispatcher, nil, tracer, logger)

			api := NewAPI(logger, persistence, registry, mon, sched, tracer)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
