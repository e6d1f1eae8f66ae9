package discord

import (
	"context"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ClickLimiter corta los doble-click sobre el join, por botón o por /join.
type ClickLimiter interface {
	Allow(ctx context.Context, userID string) bool
}

type userLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
	now  func() time.Time
}

func NewMemoryLimiter(window time.Duration) ClickLimiter {
	return newUserLimiter(window)
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{next: map[string]time.Time{}, win: window, now: time.Now}
}

func (l *userLimiter) Allow(_ context.Context, userID string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[userID]; ok && now.Before(until) {
		return false
	}
	l.next[userID] = now.Add(l.win)
	// limpieza barata para que el mapa no crezca sin límite
	if len(l.next) > 1024 {
		for id, until := range l.next {
			if !now.Before(until) {
				delete(l.next, id)
			}
		}
	}
	return true
}

// redisLimiter comparte la ventana entre procesos. Ante errores de Redis deja pasar.
type redisLimiter struct {
	client  *redis.Client
	log     *slog.Logger
	prefix  string
	win     time.Duration
	timeout time.Duration
}

func NewRedisLimiter(addr, password string, db int, window time.Duration, log *slog.Logger) (ClickLimiter, func(), error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	l := &redisLimiter{
		client:  client,
		log:     log,
		prefix:  "teambot:click:",
		win:     window,
		timeout: 250 * time.Millisecond,
	}
	return l, func() { _ = client.Close() }, nil
}

func (l *redisLimiter) Allow(ctx context.Context, userID string) bool {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ok, err := l.client.SetNX(ctx, l.prefix+userID, 1, l.win).Result()
	if err != nil {
		l.log.Error("redis click limiter error", "op", "setnx", "error", err)
		return true
	}
	return ok
}
