package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tg-guard-bot/internal/infra/metrics"
)

// Deleter удаляет сообщение в чате.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Scheduler выполняет одноразовые отложенные удаления служебных сообщений.
// Таймеры независимы друг от друга и от обработки событий; неудачное
// удаление (сообщение уже стёрто, нет прав) логируется и не повторяется.
type Scheduler struct {
	log     zerolog.Logger
	deleter Deleter
	timeout time.Duration
}

// NewScheduler создаёт планировщик.
func NewScheduler(deleter Deleter, logger zerolog.Logger) *Scheduler {
	return &Scheduler{log: logger, deleter: deleter, timeout: 10 * time.Second}
}

// DeleteAfter планирует удаление сообщения через after. Вызов не блокирует.
func (s *Scheduler) DeleteAfter(chatID int64, messageID int, after time.Duration) {
	metrics.DeferredDeletes.Inc()
	time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.deleter.DeleteMessage(ctx, chatID, messageID); err != nil {
			s.log.Debug().Err(err).Int64("chat", chatID).Int("message", messageID).Msg("отложенное удаление не выполнено")
		}
	})
}
