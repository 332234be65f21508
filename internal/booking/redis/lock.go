package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"lensbook/internal/logger"
)

const holdPrefix = "slot_hold:"

// Redis holds short-lived claims on slot windows while a booking is being
// paid for. The hold key expires on its own if the flow dies mid-way, and
// the keyspace notification lets us cancel the orphaned pending booking.
type Redis struct {
	Client  *redis.Client
	Logger  *logger.Logger
	HoldTTL time.Duration
}

func NewRedis(client *redis.Client, log *logger.Logger, holdTTL time.Duration) *Redis {
	if holdTTL <= 0 {
		holdTTL = 5 * time.Minute
	}
	return &Redis{Client: client, Logger: log, HoldTTL: holdTTL}
}

func holdKey(photographerID, date, start, end string) string {
	return fmt.Sprintf("%s%s|%s|%s|%s", holdPrefix, photographerID, date, start, end)
}

// HoldSlot claims the window for bookingID. Returns false when another
// in-flight booking already holds it. Without a redis client the hold is a
// no-op and the database conditional update is the only guard.
func (r *Redis) HoldSlot(ctx context.Context, photographerID, date, start, end, bookingID string) (bool, error) {
	if r.Client == nil {
		return true, nil
	}
	key := holdKey(photographerID, date, start, end)
	ok, err := r.Client.SetNX(ctx, key, bookingID, r.HoldTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseHold drops the claim, but only if bookingID still owns it.
func (r *Redis) ReleaseHold(ctx context.Context, photographerID, date, start, end, bookingID string) error {
	if r.Client == nil {
		return nil
	}
	key := holdKey(photographerID, date, start, end)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// IsHeld checks whether any in-flight booking currently claims the window.
func (r *Redis) IsHeld(ctx context.Context, photographerID, date, start, end string) (bool, error) {
	if r.Client == nil {
		return false, nil
	}
	key := holdKey(photographerID, date, start, end)
	_, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SubscribeHoldExpiry watches keyspace expiry events for hold keys and
// invokes onExpired with the hold's window fields. Requires
// notify-keyspace-events to include Ex. Blocks until ctx is done.
func (r *Redis) SubscribeHoldExpiry(ctx context.Context, onExpired func(photographerID, date, start, end string)) error {
	if err := r.Client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		r.Logger.Warn("REDIS", fmt.Sprintf("could not enable keyspace notifications: %v", err))
	}

	pubsub := r.Client.PSubscribe(ctx, "__keyevent@*__:expired")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(msg.Payload, holdPrefix) {
				continue
			}
			parts := strings.Split(strings.TrimPrefix(msg.Payload, holdPrefix), "|")
			if len(parts) != 4 {
				r.Logger.Warn("REDIS", "malformed hold key expired: "+msg.Payload)
				continue
			}
			onExpired(parts[0], parts[1], parts[2], parts[3])
		}
	}
}
