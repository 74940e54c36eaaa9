// internal/app/store/redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/foliokit/contactd/internal/domain/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key the Redis store writes.
const DefaultKeyPrefix = "contact:"

// RedisOptions configures Connect.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect opens a client and pings it. The caller closes the client.
func Connect(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("store: redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.Timeout,
	})
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// HealthCheck returns a check for the health package.
func HealthCheck(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// RedisRegistry hands out Redis-backed holders so form state is shared by
// every replica. The form is a hash refreshed to stateTTL on every write;
// the in-flight flag is a SET NX key that expires after inFlightTTL in
// case a process dies mid-cycle.
type RedisRegistry struct {
	client      redis.UniversalClient
	prefix      string
	stateTTL    time.Duration
	inFlightTTL time.Duration
}

// NewRedisRegistry returns a registry. An empty prefix uses DefaultKeyPrefix.
func NewRedisRegistry(client redis.UniversalClient, prefix string, stateTTL, inFlightTTL time.Duration) *RedisRegistry {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisRegistry{client: client, prefix: prefix, stateTTL: stateTTL, inFlightTTL: inFlightTTL}
}

// Holder returns the visitor's holder. It does not touch Redis.
func (r *RedisRegistry) Holder(visitorID string) *RedisHolder {
	return &RedisHolder{
		reg:         r,
		formKey:     r.prefix + "form:" + visitorID,
		inFlightKey: r.prefix + "inflight:" + visitorID,
	}
}

// RedisHolder is one visitor's state in Redis.
type RedisHolder struct {
	reg         *RedisRegistry
	formKey     string
	inFlightKey string

	mu    sync.Mutex
	token string // value of the in-flight key while this holder owns it
}

func (h *RedisHolder) Form(ctx context.Context) (models.FormRecord, error) {
	vals, err := h.reg.client.HGetAll(ctx, h.formKey).Result()
	if err != nil {
		return models.FormRecord{}, fmt.Errorf("store: load form: %w", err)
	}
	var r models.FormRecord
	for _, f := range models.Fields {
		r = r.With(f, vals[string(f)])
	}
	return r, nil
}

func (h *RedisHolder) SetField(ctx context.Context, f models.Field, value string) error {
	_, err := h.reg.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, h.formKey, string(f), value)
		if h.reg.stateTTL > 0 {
			p.Expire(ctx, h.formKey, h.reg.stateTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: set %s: %w", f, err)
	}
	return nil
}

func (h *RedisHolder) Reset(ctx context.Context) error {
	if err := h.reg.client.Del(ctx, h.formKey).Err(); err != nil {
		return fmt.Errorf("store: reset form: %w", err)
	}
	return nil
}

func (h *RedisHolder) InFlight(ctx context.Context) (bool, error) {
	n, err := h.reg.client.Exists(ctx, h.inFlightKey).Result()
	if err != nil {
		return false, fmt.Errorf("store: read in-flight: %w", err)
	}
	return n > 0, nil
}

// Acquire stores a fresh token as the flag value. The same holder must be
// used for Release.
func (h *RedisHolder) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := h.reg.client.SetNX(ctx, h.inFlightKey, token, h.reg.inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("store: acquire in-flight: %w", err)
	}
	if ok {
		h.mu.Lock()
		h.token = token
		h.mu.Unlock()
	}
	return ok, nil
}

// releaseScript deletes the flag only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release clears the flag this holder set. A flag that expired and was
// taken by a later cycle is left alone.
func (h *RedisHolder) Release(ctx context.Context) error {
	h.mu.Lock()
	token := h.token
	h.token = ""
	h.mu.Unlock()
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, h.reg.client, []string{h.inFlightKey}, token).Err(); err != nil {
		return fmt.Errorf("store: release in-flight: %w", err)
	}
	return nil
}
