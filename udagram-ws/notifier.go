package udagramws

import (
	"context"
	"fmt"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency     = 50
	DefaultDeliveryTimeout = 10 * time.Second
	DefaultRegistryTimeout = 5 * time.Second
)

// Registry is the set of live realtime connections.
type Registry interface {
	Add(ctx context.Context, conn connectiondao.Connection) error
	Remove(ctx context.Context, connectionID string) error
	ListAll(ctx context.Context) ([]connectiondao.Connection, error)
}

// DeliveryState tracks a single delivery attempt.
//
//	Pending -> Sent
//	Pending -> StaleDetected -> Pruned
//	Pending -> TransientFailed
//
// StaleDetected is terminal when the prune itself fails.
type DeliveryState int

const (
	Pending DeliveryState = iota
	Sent
	StaleDetected
	Pruned
	TransientFailed
	Reachable // probe succeeded, used by the sweeper
)

func (s DeliveryState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sent:
		return "sent"
	case StaleDetected:
		return "stale"
	case Pruned:
		return "pruned"
	case TransientFailed:
		return "transient-failed"
	case Reachable:
		return "reachable"
	default:
		return fmt.Sprintf("DeliveryState(%d)", int(s))
	}
}

// DeliveryGoneError indicates the recipient of a delivery no longer exists.
type DeliveryGoneError struct {
	ConnectionID string
	Err          error
}

func (e *DeliveryGoneError) Error() string {
	return fmt.Sprintf("connection %v gone: %v", e.ConnectionID, e.Err)
}

func (e *DeliveryGoneError) Unwrap() error { return e.Err }

// DeliveryTransientError is any other delivery failure, timeouts included.
type DeliveryTransientError struct {
	ConnectionID string
	Err          error
}

func (e *DeliveryTransientError) Error() string {
	return fmt.Sprintf("delivery to connection %v failed: %v", e.ConnectionID, e.Err)
}

func (e *DeliveryTransientError) Unwrap() error { return e.Err }

type Outcome struct {
	ConnectionID string
	State        DeliveryState
	Err          error
}

// Report holds one outcome per connection present when the fan-out started.
type Report struct {
	ObjectKey string
	Outcomes  []Outcome
}

func (r Report) Count(state DeliveryState) int {
	var n int
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

func (r Report) IDs(state DeliveryState) []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.State == state {
			ids = append(ids, o.ConnectionID)
		}
	}
	return ids
}

func (r Report) log(event *zerolog.Event) *zerolog.Event {
	return event.
		Int("connections", len(r.Outcomes)).
		Int("sent", r.Count(Sent)).
		Int("reachable", r.Count(Reachable)).
		Int("pruned", r.Count(Pruned)).
		Int("stale", r.Count(StaleDetected)).
		Int("failed", r.Count(TransientFailed))
}

// Notifier pushes an upload notification to every registered connection and
// prunes the connections found gone along the way.
type Notifier struct {
	Connections Registry
	Poster      Poster
	IsGone      func(error) bool // defaults to IsRecipientGone
	Logger      zerolog.Logger
	Metrics     udagramcli.Recorder // optional

	Concurrency     int           // max concurrent deliveries (default 50)
	Timeout         time.Duration // per delivery (default 10s)
	RegistryTimeout time.Duration // per registry call (default 5s)
}

// Notify sends {"imageKey": event.ObjectKey} to every connection. Only a
// failure to list the registry is returned; per connection failures are
// recorded in the report.
func (n *Notifier) Notify(ctx context.Context, event udagramevents.UploadEvent) (Report, error) {
	report := Report{ObjectKey: event.ObjectKey}

	payload, err := NotificationMessage(event.ObjectKey)
	if err != nil {
		return report, err
	}

	f := n.fanOut()
	connections, err := f.listAll(ctx)
	if err != nil {
		return report, err
	}

	report.Outcomes = f.run(ctx, connections, Sent, func(ctx context.Context, conn connectiondao.Connection) error {
		return n.Poster.PostToConnection(ctx, conn.Endpoint, conn.ID, payload)
	})

	if n.Metrics != nil {
		n.Metrics.Count(ctx, udagramcli.NotificationSentMetric, report.Count(Sent))
		n.Metrics.Count(ctx, udagramcli.ConnectionPrunedMetric, report.Count(Pruned))
		n.Metrics.Count(ctx, udagramcli.NotificationFailedMetric, report.Count(TransientFailed)+report.Count(StaleDetected))
	}

	return report, nil
}

// HandleUpload implements udagramevents.Subscriber
func (n *Notifier) HandleUpload(ctx context.Context, event udagramevents.UploadEvent) error {
	report, err := n.Notify(ctx, event)
	if err != nil {
		n.Logger.Error().Err(err).Str("object_key", event.ObjectKey).Msg("failed to notify connections")
		return err
	}
	report.log(n.Logger.Info()).Str("object_key", event.ObjectKey).Msg("notified connections")
	return nil
}

func (n *Notifier) fanOut() fanOut {
	return fanOut{
		registry:        n.Connections,
		isGone:          n.IsGone,
		logger:          n.Logger,
		concurrency:     n.Concurrency,
		timeout:         n.Timeout,
		registryTimeout: n.RegistryTimeout,
	}
}

// fanOut attempts an operation against every connection and applies the
// stale connection state machine to the results.
type fanOut struct {
	registry        Registry
	isGone          func(error) bool
	logger          zerolog.Logger
	concurrency     int
	timeout         time.Duration
	registryTimeout time.Duration
}

func (f fanOut) listAll(ctx context.Context) ([]connectiondao.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(f.registryTimeout, DefaultRegistryTimeout))
	defer cancel()

	return f.registry.ListAll(ctx)
}

func (f fanOut) run(
	ctx context.Context,
	connections []connectiondao.Connection,
	success DeliveryState,
	attempt func(ctx context.Context, conn connectiondao.Connection) error,
) []Outcome {
	concurrency := f.concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	// a plain group: one failed attempt must not cancel the others
	var g errgroup.Group
	g.SetLimit(concurrency)

	outcomes := make([]Outcome, len(connections))
	for i, conn := range connections {
		i, conn := i, conn
		outcomes[i] = Outcome{ConnectionID: conn.ID, State: Pending}
		g.Go(func() error {
			outcomes[i] = f.attempt(ctx, conn, success, attempt)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (f fanOut) attempt(
	ctx context.Context,
	conn connectiondao.Connection,
	success DeliveryState,
	attempt func(ctx context.Context, conn connectiondao.Connection) error,
) Outcome {
	logger := f.logger.With().Str("connection_id", conn.ID).Logger()

	actx, cancel := context.WithTimeout(ctx, orDefault(f.timeout, DefaultDeliveryTimeout))
	err := attempt(actx, conn)
	cancel()

	isGone := f.isGone
	if isGone == nil {
		isGone = IsRecipientGone
	}

	switch {
	case err == nil:
		return Outcome{ConnectionID: conn.ID, State: success}

	case isGone(err):
		outcome := Outcome{
			ConnectionID: conn.ID,
			State:        StaleDetected,
			Err:          &DeliveryGoneError{ConnectionID: conn.ID, Err: err},
		}
		if err := f.prune(ctx, conn.ID); err != nil {
			logger.Error().Err(err).Msg("failed to prune stale connection")
			return outcome
		}
		logger.Info().Msg("connection gone, pruned")
		outcome.State = Pruned
		return outcome

	default:
		logger.Warn().Err(err).Msg("delivery failed, keeping connection")
		return Outcome{
			ConnectionID: conn.ID,
			State:        TransientFailed,
			Err:          &DeliveryTransientError{ConnectionID: conn.ID, Err: err},
		}
	}
}

func (f fanOut) prune(ctx context.Context, connectionID string) error {
	ctx, cancel := context.WithTimeout(ctx, orDefault(f.registryTimeout, DefaultRegistryTimeout))
	defer cancel()

	return f.registry.Remove(ctx, connectionID)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
