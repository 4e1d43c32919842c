package activity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/viefmoon/bite-sub001/internal/models"
)

// RedisStore keeps the feed in a capped list so several processes share it.
type RedisStore struct {
	Client   *redis.Client
	Key      string
	Capacity int
}

func NewRedisStore(opt *redis.Options, key string, capacity int) *RedisStore {
	if strings.TrimSpace(key) == "" {
		key = "bite:sync:activity"
	}
	return &RedisStore{Client: redis.NewClient(opt), Key: key, Capacity: normalizeCapacity(capacity)}
}

func (s *RedisStore) Append(ctx context.Context, item models.SyncActivity) error {
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	pipe := s.Client.TxPipeline()
	pipe.LPush(ctx, s.Key, b)
	pipe.LTrim(ctx, s.Key, 0, int64(s.Capacity-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]models.SyncActivity, error) {
	n := clampLimit(limit, s.Capacity)
	raw, err := s.Client.LRange(ctx, s.Key, 0, int64(n-1)).Result()
	if err == redis.Nil {
		return []models.SyncActivity{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.SyncActivity, 0, len(raw))
	for _, entry := range raw {
		var item models.SyncActivity
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
