package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
)

// RedisRollingStore keeps the whole rolling map under a single key; SET replaces it
// atomically.
type RedisRollingStore struct {
	client        redis.Cmdable
	key           string
	historyWindow int
	log           *logger.Logger
}

// NewRedisRollingStore creates a Redis-backed rolling store.
func NewRedisRollingStore(client redis.Cmdable, key string, historyWindow int, log *logger.Logger) repository.RollingStore {
	return &RedisRollingStore{
		client:        client,
		key:           key,
		historyWindow: historyWindow,
		log:           log.With(logger.Component("rolling_redis")),
	}
}

func (s *RedisRollingStore) Location() string {
	return "redis://" + s.key
}

func (s *RedisRollingStore) Read(ctx context.Context) *models.Rolling {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("rolling read failed", logger.String("key", s.key), logger.Error(err))
		}
		return models.NewRolling()
	}
	r, err := decodeRolling(data)
	if err != nil {
		s.log.Warn("rolling record corrupt, starting empty", logger.String("key", s.key), logger.Error(err))
		return models.NewRolling()
	}
	return r
}

func (s *RedisRollingStore) Save(ctx context.Context, r *models.Rolling) error {
	if r == nil {
		return fmt.Errorf("save rolling: nil map")
	}
	data, err := encodeRolling(r, s.historyWindow, false)
	if err != nil {
		return err
	}
	err = retry(ctx, 3, func() error {
		return s.client.Set(ctx, s.key, data, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("save rolling %s: %w", s.key, err)
	}
	s.log.Info("rolling saved", logger.String("key", s.key), logger.Int("symbols", len(r.Symbols)))
	return nil
}
