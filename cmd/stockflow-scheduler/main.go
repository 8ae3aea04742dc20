// Package main provides the stockflow scheduler daemon: it polls due tasks
// on a fixed interval and executes them sequentially.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

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

const defaultIntervalMinutes = 5

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "stockflow-scheduler",
		Usage:                 "Run the recurring task scheduler",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "interval-minutes",
				Aliases: []string{"i"},
				Usage:   "Minutes between scheduler ticks",
				Value:   defaultIntervalMinutes,
				Sources: cli.EnvVars("SCHEDULER_INTERVAL_MINUTES"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-lock-url",
				Usage:   "Redis URL for the scheduler tick lock; empty runs unlocked (single instance only)",
				Sources: cli.EnvVars("REDIS_LOCK_URL"),
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

			logger.InfoContext(ctx, "Initializing Stockflow scheduler")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				var err error

				tracer, err = otelhelper.NewTracer(ctx, "stockflow-scheduler")
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
			locker := cmd.NewLocker(command.String("redis-lock-url"))
			sched := scheduler.NewScheduler(persistence, registry, dispatcher, locker, tracer, logger)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

				<-sigChan
				logger.Info("Shutting down scheduler...")
				cancel()
			}()

			interval := time.Duration(command.Int("interval-minutes")) * time.Minute

			if err := sched.Start(runCtx, interval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
