package dashboard

import (
	"context"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/serving/risk"
)

// Service aggregates the dashboard view in one store round trip, optionally
// fronted by a short-lived cache.
type Service struct {
	store       clinical.Store
	cache       Cache
	recentLimit int
	ttl         time.Duration
}

// NewService accepts a nil cache; every call then reads the store.
func NewService(store clinical.Store, cache Cache, recentLimit int, ttl time.Duration) *Service {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &Service{
		store:       store,
		cache:       cache,
		recentLimit: recentLimit,
		ttl:         ttl,
	}
}

func (s *Service) Summary(ctx context.Context) (*clinical.Summary, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("dashboard cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := s.store.Summary(ctx, s.recentLimit)
	if err != nil {
		return nil, err
	}
	normalize(summary)

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetSummary(ctx, summary, s.ttl); err != nil {
			logger.Log.WithError(err).Warn("dashboard cache write failed")
		}
	}
	return summary, nil
}

// normalize makes every tier present in the distribution so charts never
// have to special-case a missing bar.
func normalize(s *clinical.Summary) {
	if s.RiskDistribution == nil {
		s.RiskDistribution = map[string]int64{}
	}
	for _, level := range risk.Levels() {
		if _, ok := s.RiskDistribution[level.String()]; !ok {
			s.RiskDistribution[level.String()] = 0
		}
	}
	if s.RecentPredictions == nil {
		s.RecentPredictions = []clinical.RecentPrediction{}
	}
}
