package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"telegram-post-guard/internal/models"
)

var redisWarnPrefix = "warns/"

// RedisLedger keeps warn counters in redis; INCR is atomic per key.
type RedisLedger struct {
	Client *redis.Client
}

func NewRedisLedger(redisURL string) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err = rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisLedger{Client: rdb}, nil
}

func warnKey(chatID, userID int64) string {
	return fmt.Sprintf("%s%d/%d", redisWarnPrefix, chatID, userID)
}

func (s *RedisLedger) GetCount(ctx context.Context, chatID, userID int64) (uint, error) {
	c, err := s.Client.Get(ctx, warnKey(chatID, userID)).Uint64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return uint(c), nil
}

func (s *RedisLedger) AddWarn(ctx context.Context, chatID, userID int64) (uint, error) {
	c, err := s.Client.Incr(ctx, warnKey(chatID, userID)).Result()
	if err != nil {
		return 0, err
	}
	return uint(c), nil
}

func (s *RedisLedger) ResetWarn(ctx context.Context, chatID, userID int64) error {
	return s.Client.Del(ctx, warnKey(chatID, userID)).Err()
}

// ListWarns scans the chat's keys. Redis keeps no update time, so
// UpdatedAt stays zero.
func (s *RedisLedger) ListWarns(ctx context.Context, chatID int64) ([]models.WarnRecord, error) {
	prefix := fmt.Sprintf("%s%d/", redisWarnPrefix, chatID)
	var res []models.WarnRecord
	iter := s.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		userID, err := strconv.ParseInt(strings.TrimPrefix(key, prefix), 10, 64)
		if err != nil {
			continue
		}
		c, err := s.Client.Get(ctx, key).Uint64()
		if err == redis.Nil {
			continue // reset meanwhile
		} else if err != nil {
			return nil, err
		}
		if c == 0 {
			continue
		}
		res = append(res, models.WarnRecord{ChatID: chatID, UserID: userID, Count: uint(c)})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].UserID < res[j].UserID
	})
	return res, nil
}

func (s *RedisLedger) Close() error {
	return s.Client.Close()
}
