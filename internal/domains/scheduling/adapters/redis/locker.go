package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// DefaultLockTTL bounds how long a crashed booking can block a slot.
const DefaultLockTTL = 10 * time.Second

var _ ports.SlotLocker = (*SlotLocker)(nil)

// Only the holder's token may delete the key.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotLocker holds short-lived per-slot locks in Redis so replicas do not verify and book the same slot at once.
type SlotLocker struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewSlotLocker wires a Redis-backed locker. Non-positive ttl falls back to DefaultLockTTL.
func NewSlotLocker(rdb goredis.UniversalClient, ttl time.Duration, prefix string) *SlotLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "scheduling:slot-lock"
	}
	return &SlotLocker{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Acquire takes the slot lock or fails with ports.ErrSlotLocked.
func (l *SlotLocker) Acquire(ctx context.Context, slot domain.TimeSlot) (ports.ReleaseFunc, error) {
	key := l.key(slot)
	token := uuid.NewString()
	acquired, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !acquired {
		return nil, ports.ErrSlotLocked
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release slot lock: %w", err)
		}
		return nil
	}, nil
}

func (l *SlotLocker) key(slot domain.TimeSlot) string {
	return fmt.Sprintf("%s:%d:%d", l.prefix, slot.From.UTC().Unix(), slot.To.UTC().Unix())
}
