package domain

import "time"

// AuditAction описывает тип события модерации.
type AuditAction string

const (
	// AuditWarningIssued — пользователю выдано предупреждение.
	AuditWarningIssued AuditAction = "warning_issued"
	// AuditUserBanned — пользователь исключён за превышение лимита.
	AuditUserBanned AuditAction = "user_banned"
	// AuditWarningsReset — счётчик сброшен администратором.
	AuditWarningsReset AuditAction = "warnings_reset"
)

// AuditEvent — запись журнала модерации.
type AuditEvent struct {
	ID     string      `json:"event_id"`
	Action AuditAction `json:"action"`
	ChatID int64       `json:"chat_id"`
	UserID int64       `json:"user_id"`
	Count  int         `json:"count,omitempty"`
	At     time.Time   `json:"at"`
}
