package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/services"
)

// EnrollmentBus publishes enrollment events to a Redis channel so other
// processes (mailers, analytics) can react without sitting in the webhook
// path.
type EnrollmentBus interface {
	services.EnrollmentBus
	StartForwarder(ctx context.Context, onEvent func(e services.EnrollmentEvent)) error
	Close() error
}

type enrollmentBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewEnrollmentBus(log *logger.Logger) (EnrollmentBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "enrollments"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &enrollmentBus{
		log:     log.With("client", "RedisEnrollmentBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *enrollmentBus) Publish(ctx context.Context, event services.EnrollmentEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("enrollment bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and invokes onEvent for every
// decoded message until the context is cancelled.
func (b *enrollmentBus) StartForwarder(ctx context.Context, onEvent func(e services.EnrollmentEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("enrollment bus not initialized")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event services.EnrollmentEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Warn("Dropping undecodable enrollment event", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()
	return nil
}

func (b *enrollmentBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
