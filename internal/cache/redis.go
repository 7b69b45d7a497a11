package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/redis/go-redis/v9"
)

// Redis shares post views between gateway processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr, password string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis connected", "addr", addr)
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func postKey(postID string) string {
	return fmt.Sprintf("post:%s", postID)
}

func (c *Redis) Get(ctx context.Context, postID string) (*model.PostView, bool) {
	raw, err := c.client.Get(ctx, postKey(postID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", "post_id", postID, "error", err)
		}
		return nil, false
	}

	var view model.PostView
	if err := json.Unmarshal(raw, &view); err != nil {
		c.logger.Warn("discarding undecodable cached view", "post_id", postID, "error", err)
		c.Delete(ctx, postID)
		return nil, false
	}
	return &view, true
}

func (c *Redis) Set(ctx context.Context, view *model.PostView) {
	raw, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("could not encode view", "post_id", view.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, postKey(view.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "post_id", view.ID, "error", err)
	}
}

func (c *Redis) Delete(ctx context.Context, postID string) {
	if err := c.client.Del(ctx, postKey(postID)).Err(); err != nil {
		c.logger.Warn("redis delete failed", "post_id", postID, "error", err)
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}
