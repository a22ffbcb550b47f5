package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

const analyticsSummaryKey = AnalyticsCachePrefix + "summary"

// AnalyticsService reports on the risk profile of the patient population
type AnalyticsService struct {
	patients repositories.PatientRepository
	cache    providers.CacheProvider
	ttl      time.Duration
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(patients repositories.PatientRepository, cache providers.CacheProvider, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{patients: patients, cache: cache, ttl: ttl}
}

// Summary returns the number of patients and how many of them are High risk
func (s *AnalyticsService) Summary(ctx context.Context) (*entities.AnalyticsSummary, error) {
	if s.cache != nil && s.ttl > 0 {
		if raw, err := s.cache.Get(ctx, analyticsSummaryKey); err == nil {
			var summary entities.AnalyticsSummary
			if json.Unmarshal(raw, &summary) == nil {
				return &summary, nil
			}
		}
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperrors.NewAggregationError("failed to load patients", err)
	}
	summary := &entities.AnalyticsSummary{
		TotalPatients: len(patients),
		HighRiskCount: RiskCategories(patients).High,
	}

	if s.cache != nil && s.ttl > 0 {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, analyticsSummaryKey, raw, int(s.ttl.Seconds())); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Msg("analytics cache write failed")
			}
		}
	}
	return summary, nil
}

// PatientRisks returns every patient's vitals with the derived tier
func (s *AnalyticsService) PatientRisks(ctx context.Context) ([]entities.PatientRiskDetail, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperrors.NewAggregationError("failed to load patients", err)
	}
	out := make([]entities.PatientRiskDetail, len(patients))
	for i, p := range patients {
		out[i] = entities.NewPatientRiskDetail(p)
	}
	return out, nil
}
