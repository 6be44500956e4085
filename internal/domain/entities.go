package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IdentityKey — составной ключ (чат, пользователь). Счётчики и реестр
// участников ведутся независимо для каждого чата.
type IdentityKey struct {
	ChatID int64
	UserID int64
}

// String возвращает ключ в формате "<chat_id>:<user_id>".
func (k IdentityKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}

// ParseIdentityKey разбирает ключ вида "<chat_id>:<user_id>".
func ParseIdentityKey(raw string) (IdentityKey, error) {
	chatPart, userPart, ok := strings.Cut(raw, ":")
	if !ok {
		return IdentityKey{}, fmt.Errorf("некорректный ключ: %q", raw)
	}
	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return IdentityKey{}, fmt.Errorf("некорректный chat_id в ключе %q: %w", raw, err)
	}
	userID, err := strconv.ParseInt(userPart, 10, 64)
	if err != nil {
		return IdentityKey{}, fmt.Errorf("некорректный user_id в ключе %q: %w", raw, err)
	}
	return IdentityKey{ChatID: chatID, UserID: userID}, nil
}

// Member описывает участника чата, каким мы его видим в апдейте.
type Member struct {
	ID        int64
	FirstName string
	LastName  string
	Handle    string
}

// DisplayName собирает отображаемое имя из first/last, опуская пустые части.
func (m Member) DisplayName() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(m.FirstName); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(m.LastName); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// RosterEntry — последние известные имя и username для ключа идентичности.
type RosterEntry struct {
	DisplayName string
	Handle      string
}

// InboundMessage — нормализованное входящее сообщение группового чата.
type InboundMessage struct {
	ChatID       int64
	MessageID    int
	Sender       Member
	SenderChatID int64
	ReplyTo      *Member
	Text         string
	IsGroup      bool
}

// MemberStatus — статус участника чата по данным транспорта.
type MemberStatus string

const (
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusRestricted    MemberStatus = "restricted"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusBanned        MemberStatus = "kicked"
)

// Elevated сообщает, даёт ли статус привилегии администратора.
func (s MemberStatus) Elevated() bool {
	return s == MemberStatusCreator || s == MemberStatusAdministrator
}
