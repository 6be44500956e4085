package domain

import "context"

// ChatAPI описывает действия бота в чате, выполняемые через транспорт.
// SendMessage возвращает идентификаторы всех отправленных сообщений:
// длинный текст уходит несколькими частями.
type ChatAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) ([]int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	BanMember(ctx context.Context, chatID, userID int64) error
	GetMembership(ctx context.Context, chatID, userID int64) (MemberStatus, error)
	ListAdministrators(ctx context.Context, chatID int64) ([]int64, error)
}

// LedgerStore — долговременное хранилище счётчиков предупреждений.
// Persist записывает снимок целиком: файл либо единичная запись в хранилище
// отражает состояние до или после мутации, но никогда частичное.
type LedgerStore interface {
	Load(ctx context.Context) (map[IdentityKey]int, error)
	Persist(ctx context.Context, snapshot map[IdentityKey]int) error
	// Location возвращает адрес хранилища для диагностики.
	Location() string
}

// AuditSink принимает события модерации для внешнего журнала.
type AuditSink interface {
	Publish(ctx context.Context, event AuditEvent) error
}
