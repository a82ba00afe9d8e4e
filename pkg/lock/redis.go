package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLocked is returned when another holder owns the lock.
var ErrLocked = errors.New("lock is held by another run")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker hands out named, expiring locks. A Locker without a redis
// client grants every lock, which keeps single-process deployments simple.
type Locker struct {
	client *redis.Client
	prefix string
}

func NewLocker(addr, password string, db int) *Locker {
	if addr == "" {
		return &Locker{prefix: "outreach:lock:"}
	}
	return &Locker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "outreach:lock:",
	}
}

// Enabled reports whether locks are backed by redis.
func (l *Locker) Enabled() bool {
	return l != nil && l.client != nil
}

// Acquire takes the named lock for ttl. The returned func releases it.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if !l.Enabled() {
		return func() {}, nil
	}

	key := l.prefix + name
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// the caller's ctx may already be cancelled by the time we release
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *Locker) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Close()
}
