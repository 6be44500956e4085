package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/infra/metrics"
)

// Client оборачивает Bot API и реализует domain.ChatAPI.
type Client struct {
	api         *tgbotapi.BotAPI
	log         zerolog.Logger
	pollTimeout int
}

// NewClient создаёт клиент по токену бота.
func NewClient(token string, pollTimeout int, logger zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, log: logger, pollTimeout: pollTimeout}, nil
}

// SendMessage отправляет текст, при необходимости разбивая его на части.
// Возвращает идентификаторы всех отправленных сообщений.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) ([]int, error) {
	parts := SplitMessage(text)
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		sent, err := c.api.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", chatTarget(chatID), start, err)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sent.MessageID)
	}
	return ids, nil
}

// DeleteMessage удаляет сообщение в чате.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	start := time.Now()
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	metrics.ObserveNetworkRequest("telegram_bot", "delete_message", chatTarget(chatID), start, err)
	return err
}

// BanMember исключает пользователя из чата.
func (c *Client) BanMember(ctx context.Context, chatID, userID int64) error {
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	start := time.Now()
	_, err := c.api.Request(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "ban_member", chatTarget(chatID), start, err)
	return err
}

// GetMembership возвращает статус участника чата.
func (c *Client) GetMembership(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	}
	start := time.Now()
	member, err := c.api.GetChatMember(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_member", chatTarget(chatID), start, err)
	if err != nil {
		return "", err
	}
	return domain.MemberStatus(member.Status), nil
}

// ListAdministrators возвращает идентификаторы администраторов чата.
func (c *Client) ListAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	cfg := tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	}
	start := time.Now()
	admins, err := c.api.GetChatAdministrators(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_administrators", chatTarget(chatID), start, err)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(admins))
	for _, admin := range admins {
		if admin.User != nil {
			ids = append(ids, admin.User.ID)
		}
	}
	return ids, nil
}

// Poll читает апдейты длинным опросом и передаёт их обработчику,
// пока контекст не отменён.
func (c *Client) Poll(ctx context.Context, handler func(context.Context, tgbotapi.Update)) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = c.pollTimeout
	updates := c.api.GetUpdatesChan(updateCfg)
	c.log.Info().Str("bot", c.api.Self.UserName).Msg("бот запущен, слушаем апдейты")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			handler(ctx, upd)
		}
	}
}

func chatTarget(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

var _ domain.ChatAPI = (*Client)(nil)
