package moderation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/infra/metrics"
	"tg-guard-bot/internal/usecase/cleanup"
	"tg-guard-bot/internal/usecase/roster"
)

// Service прогоняет входящие групповые сообщения через пайплайн модерации:
// классификатор ссылок, журнал предупреждений, эскалация до исключения.
// Ошибки транспорта не прерывают пайплайн.
type Service struct {
	log       zerolog.Logger
	chat      domain.ChatAPI
	ledger    *Ledger
	roster    *roster.Directory
	cleanup   *cleanup.Scheduler
	audit     domain.AuditSink
	threshold int
	noticeTTL time.Duration
}

// NewService создаёт сервис модерации.
func NewService(chat domain.ChatAPI, ledger *Ledger, directory *roster.Directory, scheduler *cleanup.Scheduler, audit domain.AuditSink, threshold int, noticeTTL time.Duration, logger zerolog.Logger) *Service {
	if threshold <= 0 {
		threshold = 3
	}
	return &Service{
		log:       logger,
		chat:      chat,
		ledger:    ledger,
		roster:    directory,
		cleanup:   scheduler,
		audit:     audit,
		threshold: threshold,
		noticeTTL: noticeTTL,
	}
}

// Threshold возвращает порог исключения.
func (s *Service) Threshold() int { return s.threshold }

// HandleMessage обрабатывает одно некомандное сообщение.
func (s *Service) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if !msg.IsGroup {
		return
	}
	s.roster.Register(msg.ChatID, msg.Sender)
	if msg.ReplyTo != nil {
		s.roster.Register(msg.ChatID, *msg.ReplyTo)
	}
	metrics.MessagesChecked.Inc()

	if s.isExempt(ctx, msg) {
		return
	}
	if !IsForbidden(msg.Text) {
		return
	}
	metrics.ForbiddenLinks.Inc()

	if err := s.chat.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		s.log.Warn().Err(err).Int64("chat", msg.ChatID).Int("message", msg.MessageID).Msg("не удалось удалить сообщение нарушителя")
	}

	key := domain.IdentityKey{ChatID: msg.ChatID, UserID: msg.Sender.ID}
	count := s.ledger.Increment(ctx, key)
	metrics.WarningsIssued.Inc()
	s.publishAudit(ctx, domain.AuditWarningIssued, key, count)

	name := msg.Sender.DisplayName()
	if name == "" {
		name = fmt.Sprintf("id%d", msg.Sender.ID)
	}
	s.Notify(ctx, msg.ChatID, fmt.Sprintf(
		"🚫 %s, ссылки на сторонние группы здесь запрещены.\nПредупреждение %d/%d. После %d-го следует автоматическое исключение.",
		name, count, s.threshold, s.threshold,
	))

	if count < s.threshold {
		return
	}

	// Эскалация списывается один раз, даже если сам бан не прошёл.
	if err := s.chat.BanMember(ctx, msg.ChatID, msg.Sender.ID); err != nil {
		s.log.Error().Err(err).Int64("chat", msg.ChatID).Int64("user", msg.Sender.ID).Msg("не удалось исключить пользователя")
	} else {
		metrics.BansIssued.Inc()
	}
	s.ledger.Reset(ctx, key)
	s.publishAudit(ctx, domain.AuditUserBanned, key, count)
	s.Notify(ctx, msg.ChatID, fmt.Sprintf("%s исключён за превышение лимита предупреждений.", name))
}

// Count возвращает текущий счётчик для ключа.
func (s *Service) Count(key domain.IdentityKey) int {
	return s.ledger.Get(key)
}

// Reset сбрасывает счётчик и сообщает, была ли запись.
func (s *Service) Reset(ctx context.Context, key domain.IdentityKey) bool {
	removed := s.ledger.Reset(ctx, key)
	if removed {
		metrics.WarningsReset.Inc()
		s.publishAudit(ctx, domain.AuditWarningsReset, key, 0)
	}
	return removed
}

// Snapshot возвращает копию журнала.
func (s *Service) Snapshot() map[domain.IdentityKey]int {
	return s.ledger.Snapshot()
}

// StorageLocation возвращает адрес хранилища журнала.
func (s *Service) StorageLocation() string {
	return s.ledger.Location()
}

// Notify отправляет временное уведомление и планирует удаление каждой
// отправленной части.
func (s *Service) Notify(ctx context.Context, chatID int64, text string) {
	messageIDs, err := s.chat.SendMessage(ctx, chatID, text)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось отправить уведомление")
		return
	}
	for _, messageID := range messageIDs {
		s.cleanup.DeleteAfter(chatID, messageID, s.noticeTTL)
	}
}

// IsPrivileged проверяет права администратора для командного доступа.
// Сообщение от имени самого чата считается анонимным администратором.
// При недоступности обоих запросов к транспорту доступ запрещается.
func (s *Service) IsPrivileged(ctx context.Context, chatID, userID, senderChatID int64) bool {
	if senderChatID != 0 && senderChatID == chatID {
		return true
	}
	status, err := s.chat.GetMembership(ctx, chatID, userID)
	if err == nil {
		return status.Elevated()
	}
	s.log.Warn().Err(err).Int64("chat", chatID).Int64("user", userID).Msg("не удалось получить статус участника, пробуем список администраторов")
	admins, adminsErr := s.chat.ListAdministrators(ctx, chatID)
	if adminsErr != nil {
		s.log.Warn().Err(adminsErr).Int64("chat", chatID).Msg("список администраторов недоступен, доступ запрещён")
		return false
	}
	return slices.Contains(admins, userID)
}

// isExempt решает, освобождено ли сообщение от модерации. Недоступность
// статуса участника освобождает сообщение от модерации.
func (s *Service) isExempt(ctx context.Context, msg domain.InboundMessage) bool {
	if msg.SenderChatID != 0 && msg.SenderChatID == msg.ChatID {
		return true
	}
	status, err := s.chat.GetMembership(ctx, msg.ChatID, msg.Sender.ID)
	if err != nil {
		s.log.Warn().Err(err).Int64("chat", msg.ChatID).Int64("user", msg.Sender.ID).Msg("не удалось получить статус участника, сообщение не модерируется")
		return true
	}
	return status.Elevated()
}

func (s *Service) publishAudit(ctx context.Context, action domain.AuditAction, key domain.IdentityKey, count int) {
	if s.audit == nil {
		return
	}
	event := domain.AuditEvent{
		ID:     uuid.NewString(),
		Action: action,
		ChatID: key.ChatID,
		UserID: key.UserID,
		Count:  count,
		At:     time.Now().UTC(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("action", string(action)).Msg("не удалось опубликовать событие аудита")
	}
}
