// Package jobstore keeps uploaded files of the development backend until
// their extraction stream is consumed.
package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/survaize/survaize-client/internal/config"
	"github.com/survaize/survaize-client/internal/domain"
)

// ErrNotFound indicates an unknown or expired job.
var ErrNotFound = errors.New("job not found")

// DefaultTTL is how long an uploaded job waits for its stream.
const DefaultTTL = 10 * time.Minute

// Job is an uploaded source file awaiting extraction.
type Job struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Format    domain.Format `json:"format"`
	Data      []byte        `json:"data"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store defines the job storage interface.
type Store interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open builds the store selected by cfg.
func Open(cfg config.StoreConfig, ttl time.Duration) (Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      ttl,
		})
	default:
		return nil, fmt.Errorf("unknown job store driver: %s", cfg.Driver)
	}
}
