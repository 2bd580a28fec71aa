package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
)

type suggestionFetcher interface {
	GetSuggestion(ctx context.Context, requestID string) (*models.AssignmentSuggestion, error)
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool)
}

// SuggestionService is a thin consumer of the external assignment-ranking
// service. Scores are never recomputed here; a failed fetch degrades to an
// empty suggestion so manual assignment is never blocked.
type SuggestionService struct {
	fetcher  suggestionFetcher
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  cacheRecorder
	logger   *zap.Logger
}

// SuggestionOption configures optional collaborators.
type SuggestionOption func(*SuggestionService)

// WithSuggestionMetrics attaches cache hit/miss counters.
func WithSuggestionMetrics(m cacheRecorder) SuggestionOption {
	return func(s *SuggestionService) { s.metrics = m }
}

// NewSuggestionService constructs the adapter. The cache client may be nil.
func NewSuggestionService(fetcher suggestionFetcher, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger, opts ...SuggestionOption) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	s := &SuggestionService{fetcher: fetcher, cache: cache, cacheTTL: cacheTTL, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Suggest returns the ranked candidates for a request. The degraded flag is
// set when the ranking service failed and the empty suggestion was returned.
func (s *SuggestionService) Suggest(ctx context.Context, requestID string) (models.AssignmentSuggestion, bool) {
	if cached, ok := s.fromCache(ctx, requestID); ok {
		s.recordCache(true)
		return cached, false
	}
	if s.cache != nil {
		s.recordCache(false)
	}

	suggestion, err := s.fetcher.GetSuggestion(ctx, requestID)
	if err != nil || suggestion == nil {
		s.logger.Warn("suggestion fetch failed, degrading to empty",
			zap.String("request_id", requestID), zap.Error(err))
		return models.AssignmentSuggestion{}.Empty(), true
	}

	s.toCache(ctx, requestID, *suggestion)
	return *suggestion, false
}

func (s *SuggestionService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}

func cacheKey(requestID string) string {
	return "suggestion:" + requestID
}

func (s *SuggestionService) fromCache(ctx context.Context, requestID string) (models.AssignmentSuggestion, bool) {
	if s.cache == nil {
		return models.AssignmentSuggestion{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(requestID)).Bytes()
	if err != nil {
		return models.AssignmentSuggestion{}, false
	}
	var suggestion models.AssignmentSuggestion
	if err := json.Unmarshal(raw, &suggestion); err != nil {
		return models.AssignmentSuggestion{}, false
	}
	return suggestion, true
}

func (s *SuggestionService) toCache(ctx context.Context, requestID string, suggestion models.AssignmentSuggestion) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(suggestion)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(requestID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("suggestion cache write failed", zap.Error(err))
	}
}
