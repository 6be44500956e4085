package audit

import (
	"context"

	"tg-guard-bot/internal/domain"
)

// NopSink отбрасывает события аудита. Используется, когда внешний
// журнал не настроен.
type NopSink struct{}

// NewNopSink создаёт заглушку.
func NewNopSink() *NopSink {
	return &NopSink{}
}

// Publish ничего не делает.
func (s *NopSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	return nil
}

var _ domain.AuditSink = (*NopSink)(nil)
