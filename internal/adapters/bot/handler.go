package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/usecase/moderation"
	"tg-guard-bot/internal/usecase/roster"
)

// Handler маршрутизирует входящие апдейты: команды — в командные
// обработчики, остальные групповые сообщения — в пайплайн модерации.
// Каждый апдейт обрабатывается воркером из ограниченного пула, чтобы
// медленный вызов транспорта в одном чате не тормозил остальные.
type Handler struct {
	log            zerolog.Logger
	moderation     *moderation.Service
	roster         *roster.Directory
	chat           domain.ChatAPI
	workers        chan struct{}
	ambiguousLimit int
}

// NewHandler создаёт обработчик.
func NewHandler(chat domain.ChatAPI, moderationUC *moderation.Service, directory *roster.Directory, workerPool, ambiguousLimit int, logger zerolog.Logger) *Handler {
	if workerPool <= 0 {
		workerPool = 16
	}
	if ambiguousLimit <= 0 {
		ambiguousLimit = 5
	}
	return &Handler{
		log:            logger,
		moderation:     moderationUC,
		roster:         directory,
		chat:           chat,
		workers:        make(chan struct{}, workerPool),
		ambiguousLimit: ambiguousLimit,
	}
}

// HandleUpdate принимает апдейт и передаёт его свободному воркеру.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	select {
	case h.workers <- struct{}{}:
	case <-ctx.Done():
		return
	}
	go func() {
		defer func() { <-h.workers }()
		h.route(ctx, msg)
	}()
}

func (h *Handler) route(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		return
	}
	h.moderation.HandleMessage(ctx, inboundFromMessage(msg))
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var handle func(context.Context, *tgbotapi.Message)
	switch msg.Command() {
	case "warnings":
		handle = h.handleWarnings
	case "unwarn":
		handle = h.handleUnwarn
	case "debugwarnings":
		handle = h.handleDebugWarnings
	default:
		// Чужие команды не трогаем.
		return
	}

	// Своя команда регистрирует отправителя и удаляется из чата.
	h.roster.Register(msg.Chat.ID, memberFromUser(msg.From))
	if err := h.chat.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		h.log.Debug().Err(err).Int64("chat", msg.Chat.ID).Int("message", msg.MessageID).Msg("не удалось удалить командное сообщение")
	}

	handle(ctx, msg)
}

func (h *Handler) handleWarnings(ctx context.Context, msg *tgbotapi.Message) {
	key, ok := h.resolveTarget(ctx, msg, "Использование: /warnings @username или /warnings имя")
	if !ok {
		return
	}
	count := h.moderation.Count(key)
	name := h.targetName(key)
	h.moderation.Notify(ctx, msg.Chat.ID, fmt.Sprintf("%s: %d/%d предупреждений.", name, count, h.moderation.Threshold()))
}

func (h *Handler) handleUnwarn(ctx context.Context, msg *tgbotapi.Message) {
	if !h.moderation.IsPrivileged(ctx, msg.Chat.ID, msg.From.ID, senderChatID(msg)) {
		h.moderation.Notify(ctx, msg.Chat.ID, "Команда доступна только администраторам.")
		return
	}
	key, ok := h.resolveTarget(ctx, msg, "Использование: /unwarn @username или /unwarn имя")
	if !ok {
		return
	}
	name := h.targetName(key)
	if !h.moderation.Reset(ctx, key) {
		h.moderation.Notify(ctx, msg.Chat.ID, fmt.Sprintf("У %s нет предупреждений.", name))
		return
	}
	h.moderation.Notify(ctx, msg.Chat.ID, fmt.Sprintf("Предупреждения %s сброшены.", name))
}

func (h *Handler) handleDebugWarnings(ctx context.Context, msg *tgbotapi.Message) {
	if !h.moderation.IsPrivileged(ctx, msg.Chat.ID, msg.From.ID, senderChatID(msg)) {
		h.moderation.Notify(ctx, msg.Chat.ID, "Команда доступна только администраторам.")
		return
	}
	snapshot := h.moderation.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "Хранилище: %s\nЗаписей: %d\n", h.moderation.StorageLocation(), len(snapshot))
	keys := make([]domain.IdentityKey, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ChatID != keys[j].ChatID {
			return keys[i].ChatID < keys[j].ChatID
		}
		return keys[i].UserID < keys[j].UserID
	})
	for _, key := range keys {
		fmt.Fprintf(&b, "%s = %d\n", key, snapshot[key])
	}
	h.moderation.Notify(ctx, msg.Chat.ID, strings.TrimSpace(b.String()))
}

// resolveTarget находит цель команды: reply имеет приоритет над текстовым
// запросом. Все промежуточные ответы (подсказка, "не найден",
// неоднозначность) отправляются отсюда.
func (h *Handler) resolveTarget(ctx context.Context, msg *tgbotapi.Message, usage string) (domain.IdentityKey, bool) {
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		member := memberFromUser(reply.From)
		h.roster.Register(msg.Chat.ID, member)
		return domain.IdentityKey{ChatID: msg.Chat.ID, UserID: member.ID}, true
	}

	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		h.moderation.Notify(ctx, msg.Chat.ID, usage)
		return domain.IdentityKey{}, false
	}

	matches := h.roster.Resolve(msg.Chat.ID, query)
	switch {
	case len(matches) == 0:
		h.moderation.Notify(ctx, msg.Chat.ID, "Такой участник не найден.")
		return domain.IdentityKey{}, false
	case len(matches) == 1:
		return matches[0].Key, true
	case len(matches) > h.ambiguousLimit:
		h.moderation.Notify(ctx, msg.Chat.ID, "Слишком много совпадений, уточните запрос.")
		return domain.IdentityKey{}, false
	default:
		var b strings.Builder
		b.WriteString("Найдено несколько участников, ответьте командой на сообщение нужного:\n")
		for _, match := range matches {
			b.WriteString("- " + describeEntry(match.Entry) + "\n")
		}
		h.moderation.Notify(ctx, msg.Chat.ID, strings.TrimSpace(b.String()))
		return domain.IdentityKey{}, false
	}
}

func (h *Handler) targetName(key domain.IdentityKey) string {
	if entry, ok := h.roster.Get(key); ok && entry.DisplayName != "" {
		return entry.DisplayName
	}
	return fmt.Sprintf("id%d", key.UserID)
}

func describeEntry(entry domain.RosterEntry) string {
	name := entry.DisplayName
	if name == "" {
		name = "(без имени)"
	}
	if entry.Handle != "" {
		return name + " (@" + entry.Handle + ")"
	}
	return name
}

func senderChatID(msg *tgbotapi.Message) int64 {
	if msg.SenderChat == nil {
		return 0
	}
	return msg.SenderChat.ID
}

func memberFromUser(user *tgbotapi.User) domain.Member {
	return domain.Member{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Handle:    user.UserName,
	}
}

func inboundFromMessage(msg *tgbotapi.Message) domain.InboundMessage {
	inbound := domain.InboundMessage{
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
		Sender:       memberFromUser(msg.From),
		SenderChatID: senderChatID(msg),
		Text:         msg.Text,
		IsGroup:      msg.Chat.IsGroup() || msg.Chat.IsSuperGroup(),
	}
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		member := memberFromUser(reply.From)
		inbound.ReplyTo = &member
	}
	return inbound
}
