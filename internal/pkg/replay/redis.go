package replay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "otpbite:used:"

// Redis shares claims between instances through SET NX.
type Redis struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{
		client: client,
		prefix: redisPrefix,
	}
}

func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	return r.client.SetNX(ctx, r.prefix+key, time.Now().Unix(), ttl).Result()
}
