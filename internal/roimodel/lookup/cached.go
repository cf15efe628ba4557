package lookup

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// CachedService decorates a Service with a Cache. Cache failures are logged
// and fall through to the wrapped service; misses are not cached.
type CachedService struct {
	next   Service
	cache  Cache
	logger *zap.Logger
}

func NewCachedService(next Service, cache Cache, logger *zap.Logger) *CachedService {
	return &CachedService{
		next:   next,
		cache:  cache,
		logger: logger.Named("lookup_cache"),
	}
}

func (s *CachedService) Location(ctx context.Context, zipCode string) (*models.Location, error) {
	return cached(ctx, s, locationsPath, zipCode, s.next.Location)
}

func (s *CachedService) Occupation(ctx context.Context, onetCode string) (*models.Occupation, error) {
	return cached(ctx, s, occupationsPath, onetCode, s.next.Occupation)
}

func (s *CachedService) Institution(ctx context.Context, unitID string) (*models.Institution, error) {
	return cached(ctx, s, institutionsPath, unitID, s.next.Institution)
}

func (s *CachedService) InstructionalProgram(ctx context.Context, cipCode string) (*models.InstructionalProgram, error) {
	return cached(ctx, s, programsPath, cipCode, s.next.InstructionalProgram)
}

func cached[T any](
	ctx context.Context,
	s *CachedService,
	resource, key string,
	fetch func(context.Context, string) (*T, error),
) (*T, error) {
	cacheKey := resource + ":" + key

	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("Lookup cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}
	if ok {
		var record T
		if err := json.Unmarshal(raw, &record); err == nil {
			return &record, nil
		}
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", cacheKey))
	}

	record, err := fetch(ctx, key)
	if err != nil || record == nil {
		return record, err
	}

	if encoded, err := json.Marshal(record); err == nil {
		if err := s.cache.Set(ctx, cacheKey, encoded); err != nil {
			s.logger.Warn("Lookup cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return record, nil
}
