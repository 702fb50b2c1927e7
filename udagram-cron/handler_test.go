package udagramcron

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

var service = udagramcli.Service{Name: "test-cron", Version: "test"}

func TestRunOnce(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var called bool
		h := NewHandler(service, func(ctx context.Context) error {
			called = true
			return nil
		})
		h.logger = zerolog.Nop()

		err := h.RunOnce(context.Background(), events.CloudWatchEvent{ID: "abc"})
		assert.Nil(t, err)
		assert.True(t, called)
	})

	t.Run("error", func(t *testing.T) {
		h := NewHandler(service, func(ctx context.Context) error {
			return fmt.Errorf("boom")
		})
		h.logger = zerolog.Nop()

		err := h.RunOnce(context.Background(), events.CloudWatchEvent{})
		assert.EqualError(t, err, "boom")
	})
}

func TestLoop(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHandler(service, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
		return fmt.Errorf("keep going")
	})
	h.logger = zerolog.Nop()

	err := h.Loop(ctx, time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
