package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tg-guard-bot/internal/domain"
)

// RedisSink публикует события аудита в Redis list. Внешний потребитель
// забирает их через BRPOP.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink создаёт журнал по указанному ключу.
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

// Publish кладёт событие в список.
func (s *RedisSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("публикация события: %w", err)
	}
	return nil
}

var _ domain.AuditSink = (*RedisSink)(nil)
