package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	backend "github.com/redis/go-redis/v9"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// DefaultPrefix namespaces every key the adapter writes.
const DefaultPrefix = "pos:"

// Store implements ports.SettingsStore using Redis.
// Each terminal is a hash; a set indexes the known terminals.
type Store struct {
	client backend.UniversalClient
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New connects to the Redis server described by url (redis://host:port/db).
func New(url string, opts ...Option) (*Store, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() backend.UniversalClient {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(terminalID string) string {
	return s.prefix + "settings:" + terminalID
}

func (s *Store) indexKey() string {
	return s.prefix + "terminals"
}

func (s *Store) SaveTransactionNumber(ctx context.Context, terminalID string, number int64) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(terminalID), "transactionNumber", number)
	pipe.SAdd(ctx, s.indexKey(), terminalID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *Store) LoadTransactionNumber(ctx context.Context, terminalID string) (int64, error) {
	val, err := s.client.HGet(ctx, s.key(terminalID), "transactionNumber").Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, domain.ErrSettingNotFound
		}
		return 0, fmt.Errorf("failed to get from redis: %w", err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt transaction number %q: %w", val, err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, terminalID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(terminalID))
	pipe.SRem(ctx, s.indexKey(), terminalID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list terminals: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
