package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis serializes settlement attempts for a transaction across the callback
// handler and the status poller, including across processes.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getSettlementLockTTL returns the lock TTL from environment variables or the default value
func (r *Redis) getSettlementLockTTL() time.Duration {
	// Default lock TTL is 30 seconds, long enough for one provider round trip
	defaultTTL := 30 * time.Second

	ttlStr := os.Getenv("SETTLEMENT_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid SETTLEMENT_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 30 seconds")
		return defaultTTL
	}

	return time.Duration(ttlSec) * time.Second
}

// LockTransaction takes the settlement lock for a transaction. owner
// identifies the caller so only the holder can release it.
func (r *Redis) LockTransaction(transactionID, owner string) (bool, error) {
	key := "settlement_lock:" + transactionID
	ok, err := r.Client.SetNX(context.Background(), key, owner, r.getSettlementLockTTL()).Result()
	return ok, err
}

// UnlockTransaction releases the settlement lock if owner still holds it.
func (r *Redis) UnlockTransaction(transactionID, owner string) error {
	ctx := context.Background()
	key := fmt.Sprintf("settlement_lock:%s", transactionID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
