package statistics

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/metrics"
)

// ReportUnlinked refreshes the unlinked gauge and warns about stale records,
// which are purchases nobody has claimed by signing in with the same email.
func (s *Service) ReportUnlinked(ctx context.Context) error {
	total, stale, err := s.UnlinkedSummary(ctx)
	if err != nil {
		s.log.Warnw("unlinked_report_failed", "err", err)
		return err
	}
	metrics.SetUnlinkedMemberships(total, stale)
	if stale > 0 {
		s.log.Warnw("stale_unlinked_memberships", "count", stale, "total_unlinked", total, "older_than", s.staleAfter.String())
	}
	return nil
}

func registerReporter(lc fx.Lifecycle, cfg *config.Config, s *Service) {
	interval := cfg.Statistics.ReportInterval
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				_ = s.ReportUnlinked(ctx)
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						_ = s.ReportUnlinked(ctx)
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
