package redis

import (
	"github.com/redis/go-redis/v9"
)

// NewClient builds the shared redis client used for presence tracking.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
