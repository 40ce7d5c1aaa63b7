// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

// Redis stores history in Redis. Each room has a list of message IDs in send
// order and a hash from ID to message JSON; both are trimmed to maxPerRoom.
type Redis struct {
	client     *redis.Client
	prefix     string
	maxPerRoom int64
}

// OpenRedis connects to Redis and verifies the connection with PING. Each
// room keeps at most maxPerRoom messages.
func OpenRedis(cfg *config.RedisConfig, maxPerRoom int64) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logging.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("history store opened (redis)")
	return NewRedisWithClient(client, cfg.KeyPrefix, maxPerRoom), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, maxPerRoom int64) *Redis {
	if maxPerRoom <= 0 {
		maxPerRoom = DefaultMemoryPerRoom
	}
	return &Redis{client: client, prefix: prefix, maxPerRoom: maxPerRoom}
}

func (s *Redis) listKey(room string) string {
	return fmt.Sprintf("%s:room:%s:ids", s.prefix, room)
}

func (s *Redis) hashKey(room string) string {
	return fmt.Sprintf("%s:room:%s:msgs", s.prefix, room)
}

// Append implements Store.
func (s *Redis) Append(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	listKey, hashKey := s.listKey(msg.Room), s.hashKey(msg.Room)
	var length *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, msg.ID, data)
		length = pipe.RPush(ctx, listKey, msg.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}

	if over := length.Val() - s.maxPerRoom; over > 0 {
		ids, err := s.client.LPopCount(ctx, listKey, int(over)).Result()
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
		if len(ids) > 0 {
			if err := s.client.HDel(ctx, hashKey, ids...).Err(); err != nil {
				return fmt.Errorf("failed to trim history: %w", err)
			}
		}
	}
	return nil
}

// Recent implements Store.
func (s *Redis) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	out := make([]models.Message, 0, max(limit, 0))
	if limit <= 0 {
		return out, nil
	}

	ids, err := s.client.LRange(ctx, s.listKey(room), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history ids: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	vals, err := s.client.HMGet(ctx, s.hashKey(room), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var m models.Message
		if err := json.Unmarshal([]byte(str), &m); err != nil {
			logging.Warn().Err(err).Str("room", room).Msg("skipping unreadable history entry")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Flag implements Store.
func (s *Redis) Flag(ctx context.Context, room, id string) error {
	hashKey := s.hashKey(room)
	data, err := s.client.HGet(ctx, hashKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}

	var m models.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	if m.IsFlagged {
		return nil
	}
	m.IsFlagged = true
	if data, err = json.Marshal(&m); err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.client.HSet(ctx, hashKey, id, data).Err(); err != nil {
		return fmt.Errorf("failed to flag message: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *Redis) Close() error {
	return s.client.Close()
}
