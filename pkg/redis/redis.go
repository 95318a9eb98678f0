package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tablemenu/menu-backend/config"
	"github.com/tablemenu/menu-backend/pkg/logger"
)

const blacklistPrefix = "blacklist:"

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return client, nil
}

// Blacklist stores revoked access-token ids until the token would have expired anyway.
type Blacklist struct {
	client redis.Cmdable
}

func NewBlacklist(client redis.Cmdable) *Blacklist {
	return &Blacklist{client: client}
}

// Revoke blacklists tokenID for ttl. A non-positive ttl is a no-op since the token is already dead.
func (b *Blacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"ttl": ttl.String(),
	})

	if err := b.client.Set(ctx, blacklistPrefix+tokenID, "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

// IsRevoked reports whether tokenID was blacklisted.
func (b *Blacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+tokenID).Result()
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return n > 0, nil
}
