// Package udagramcron provides utilities for building scheduled Lambda functions.
package udagramcron

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var CronOpts struct {
	Interval time.Duration
}

var IntervalFlag = udagramcli.DurationFlag("interval", "In console mode, repeat the job at this interval; 0 runs it once", &CronOpts.Interval, 0)

var CronFlags = []cli.Flag{
	IntervalFlag,
}

type RunCallback func(ctx context.Context) error

type Handler struct {
	service udagramcli.Service
	logger  zerolog.Logger

	runOnce RunCallback
}

func NewHandler(
	service udagramcli.Service,
	runOnce RunCallback,
) *Handler {
	return &Handler{
		service: service,
		logger:  udagramcli.Logger(service),
		runOnce: runOnce,
	}
}

// RunOnce handles a scheduled EventBridge event.
func (h *Handler) RunOnce(ctx context.Context, event events.CloudWatchEvent) error {
	logger := h.logger.With().Str("event_id", event.ID).Logger()
	return h.run(logger.WithContext(ctx), logger)
}

func (h *Handler) run(ctx context.Context, logger zerolog.Logger) error {
	begin := time.Now()
	logger.Info().Msg("running scheduled task")
	if err := h.runOnce(ctx); err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(begin)).Msg("scheduled task failed")
		return err
	}
	logger.Info().Dur("elapsed", time.Since(begin)).Msg("scheduled task complete")
	return nil
}

// Loop runs the task every interval until ctx is done. Task failures are
// logged and do not stop the loop.
func (h *Handler) Loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = h.run(ctx, h.logger)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (h *Handler) Start() error {
	switch {
	case udagramcli.CommonOpts.Console && CronOpts.Interval > 0:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return h.Loop(ctx, CronOpts.Interval)

	case udagramcli.CommonOpts.Console:
		return h.run(context.Background(), h.logger)

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
