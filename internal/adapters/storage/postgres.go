package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-guard-bot/internal/domain"
)

const ledgerRowID = 1

// PostgresStore хранит журнал одной JSONB-строкой. Upsert заменяет
// значение в одной транзакции, частичное состояние невозможно.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула подключений.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema создаёт таблицу журнала, если её ещё нет.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS warning_ledger (
			id SMALLINT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("создание таблицы warning_ledger: %w", err)
	}
	return nil
}

// Load читает журнал. Отсутствующая строка — пустой журнал.
func (s *PostgresStore) Load(ctx context.Context) (map[domain.IdentityKey]int, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM warning_ledger WHERE id = $1`, ledgerRowID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[domain.IdentityKey]int{}, nil
		}
		return nil, fmt.Errorf("чтение warning_ledger: %w", err)
	}
	if len(payload) == 0 {
		return map[domain.IdentityKey]int{}, nil
	}
	counts, err := decodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("warning_ledger: %w", err)
	}
	return counts, nil
}

// Persist заменяет строку журнала целиком.
func (s *PostgresStore) Persist(ctx context.Context, snapshot map[domain.IdentityKey]int) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO warning_ledger (id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		ledgerRowID, payload)
	if err != nil {
		return fmt.Errorf("запись warning_ledger: %w", err)
	}
	return nil
}

// Location возвращает имя таблицы журнала.
func (s *PostgresStore) Location() string {
	return "postgres://warning_ledger"
}

var _ domain.LedgerStore = (*PostgresStore)(nil)
