package preferences

import (
	"context"
	"fmt"
	"strconv"

	"circuitbot/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Store = (*RedisStore)(nil)

const redisKeyPrefix = "ab_prefs:"

// RedisStore хранит счетчики в хэше ab_prefs:{userID} с полями concise/detailed.
// HINCRBY атомарен, поэтому параллельные выборы не теряются.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore создает хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.Named("RedisPrefsStore"),
	}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

// Counter читает счетчики пользователя.
func (s *RedisStore) Counter(ctx context.Context, userID string) (models.StyleCounter, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return models.StyleCounter{}, fmt.Errorf("hgetall %s: %w", redisKey(userID), err)
	}
	return counterFromHash(fields), nil
}

// Leaning реализует Store.
func (s *RedisStore) Leaning(ctx context.Context, userID string) models.Leaning {
	counter, err := s.Counter(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to read prefs, assuming neutral", zap.String("userID", userID), zap.Error(err))
		return models.LeaningNeutral
	}
	return counter.Leaning()
}

// RecordChoice реализует Store.
func (s *RedisStore) RecordChoice(ctx context.Context, userID string, style models.Style) models.StyleCounter {
	key := redisKey(userID)

	var all *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, string(style), 1)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record choice", zap.String("userID", userID), zap.String("style", string(style)), zap.Error(err))
		return models.StyleCounter{}
	}

	counter := counterFromHash(all.Val())
	s.logger.Debug("Recorded A/B choice",
		zap.String("userID", userID),
		zap.String("style", string(style)),
		zap.Int("concise", counter.Concise),
		zap.Int("detailed", counter.Detailed),
	)
	return counter
}

func counterFromHash(fields map[string]string) models.StyleCounter {
	var c models.StyleCounter
	// Битые значения считаем нулями
	c.Concise, _ = strconv.Atoi(fields[string(models.StyleConcise)])
	c.Detailed, _ = strconv.Atoi(fields[string(models.StyleDetailed)])
	return c
}
