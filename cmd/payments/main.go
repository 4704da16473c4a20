package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"
	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/config"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/operations"
	"github.com/goliatone/go-payments/scheduler"
	"github.com/goliatone/go-payments/storage/postgres"
	"github.com/goliatone/go-payments/workflows"
)

type cli struct {
	Config string `help:"Path to YAML config file." short:"c" type:"path"`

	Consumer consumerCmd `cmd:"" help:"Run the background job consumer."`
}

type consumerCmd struct{}

func (c *consumerCmd) Run(cfg config.Config, logger payments.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		PingTimeout:     cfg.Database.PingTimeout,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)

	dispatcher := audit.NewDispatcher(audit.WithLogger(logger))
	deps := operations.Deps{
		Payments:  store,
		Payouts:   store,
		Addresses: store,
		Profiles:  store,
		Config:    store,
		Audit:     dispatcher,
		Logger:    logger,
	}

	policy := scheduler.RetryPolicy{
		MaxRetries: cfg.Scheduler.MaxRetries,
		Strategy: scheduler.ExponentialBackoffStrategy{
			Base:   cfg.Scheduler.BackoffBase,
			Factor: cfg.Scheduler.BackoffFactor,
			Max:    cfg.Scheduler.BackoffMax,
		},
	}

	consumer := scheduler.NewConsumer(store,
		scheduler.WithSchedule(cfg.Scheduler.Schedule),
		scheduler.WithBatchSize(cfg.Scheduler.BatchSize),
		scheduler.WithDefaultRetryPolicy(policy),
		scheduler.WithLogger(logger),
		scheduler.WithErrorHandler(func(err error) {
			logger.Error("consumer: %v", err)
		}),
	)

	// Connector hooks are intentionally pass-through here; deployments plug
	// in their connector client between fetch and update.
	payoutHook := func(_ context.Context, data *domain.PayoutData) (*domain.PayoutData, error) {
		return data, nil
	}
	cancelHook := func(_ context.Context, data *domain.PaymentData) (*domain.PaymentData, error) {
		return data, nil
	}

	if err := consumer.Register(workflows.NewPayoutRetrieveWorkflow(
		store, operations.NewPayoutRetrieve(deps), payoutHook, logger)); err != nil {
		return err
	}
	if err := consumer.Register(workflows.NewPaymentCancelWorkflow(
		store, operations.NewCancel(deps), cancelHook, logger)); err != nil {
		return err
	}

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	logger.Info("consumer started, schedule %s, batch size %d",
		cfg.Scheduler.Schedule, cfg.Scheduler.BatchSize)

	<-ctx.Done()
	logger.Info("shutting down")
	return consumer.Stop(context.Background())
}

type glogCompatLogger struct {
	logger glog.Logger
}

func (l glogCompatLogger) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogCompatLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogCompatLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogCompatLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogCompatLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogCompatLogger) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogCompatLogger) WithContext(ctx context.Context) payments.Logger {
	return glogCompatLogger{logger: l.logger.WithContext(ctx)}
}

func (l glogCompatLogger) WithFields(fields map[string]any) payments.Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogCompatLogger{logger: fl.WithFields(fields)}
	}
	return l
}

func main() {
	var flags cli
	kctx := kong.Parse(&flags,
		kong.Name("payments"),
		kong.Description("Payment and payout transaction orchestration service."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "payments: %v\n", err)
		os.Exit(1)
	}

	logger := glogCompatLogger{logger: glog.NewLogger(
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(cfg.LogLevel),
	)}

	kctx.Bind(cfg)
	kctx.BindTo(logger, (*payments.Logger)(nil))
	kctx.FatalIfErrorf(kctx.Run())
}
