package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tg-guard-bot/internal/domain"
)

// RedisStore хранит журнал одной JSON-записью по фиксированному ключу.
// SET заменяет значение атомарно, частичное состояние невозможно.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore создаёт хранилище по указанному ключу.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load читает журнал. Отсутствующий ключ — пустой журнал.
func (s *RedisStore) Load(ctx context.Context) (map[domain.IdentityKey]int, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[domain.IdentityKey]int{}, nil
		}
		return nil, fmt.Errorf("чтение ключа %s: %w", s.key, err)
	}
	if len(payload) == 0 {
		return map[domain.IdentityKey]int{}, nil
	}
	counts, err := decodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("ключ %s: %w", s.key, err)
	}
	return counts, nil
}

// Persist заменяет запись журнала целиком.
func (s *RedisStore) Persist(ctx context.Context, snapshot map[domain.IdentityKey]int) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("запись ключа %s: %w", s.key, err)
	}
	return nil
}

// Location возвращает адрес Redis и ключ журнала.
func (s *RedisStore) Location() string {
	return fmt.Sprintf("redis://%s/%s", s.client.Options().Addr, s.key)
}

var _ domain.LedgerStore = (*RedisStore)(nil)
