//
//
package stats

import (
	"fmt"

	"github.com/visitor-flow/vfc/internal/config"
	"github.com/visitor-flow/vfc/internal/intensity"
)

// StrategyFromConfig builds the strategy selected by cfg.Stats.Mode.
func StrategyFromConfig(cfg *config.Config) (Strategy, error) {
	mode, err := ParseMode(cfg.Stats.Mode)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if mode == ModeTally {
		return TallyStrategy{Limit: cfg.Stats.RecentLimit, Location: loc}, nil
	}

	epoch, err := cfg.Epoch()
	if err != nil {
		return nil, err
	}
	est, err := intensity.New(cfg.Estimator.BandwidthMinutes, cfg.Estimator.Resolution)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimator: %w", err)
	}

	return RateStrategy{
		Estimator: est,
		Epoch:     epoch,
		Weighted:  cfg.Estimator.WeightByGroupSize,
	}, nil
}
