package udagramws

import (
	"context"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/rs/zerolog"
)

// Sweeper probes every registered connection and prunes the ones that are
// gone, without sending anything to the clients.
type Sweeper struct {
	Connections Registry
	Prober      Prober
	IsGone      func(error) bool
	Logger      zerolog.Logger
	Metrics     udagramcli.Recorder

	Concurrency     int
	Timeout         time.Duration
	RegistryTimeout time.Duration
}

func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	f := fanOut{
		registry:        s.Connections,
		isGone:          s.IsGone,
		logger:          s.Logger,
		concurrency:     s.Concurrency,
		timeout:         s.Timeout,
		registryTimeout: s.RegistryTimeout,
	}

	connections, err := f.listAll(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Outcomes: f.run(ctx, connections, Reachable, func(ctx context.Context, conn connectiondao.Connection) error {
			return s.Prober.GetConnection(ctx, conn.Endpoint, conn.ID)
		}),
	}

	if s.Metrics != nil {
		s.Metrics.Count(ctx, udagramcli.ConnectionPrunedMetric, report.Count(Pruned))
	}
	return report, nil
}

// RunOnce is the scheduled entry point.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	report, err := s.Sweep(ctx)
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to sweep connections")
		return err
	}
	report.log(s.Logger.Info()).Msg("swept connections")
	return nil
}
