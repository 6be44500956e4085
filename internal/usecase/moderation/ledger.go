package moderation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/infra/metrics"
)

// Ledger хранит счётчики предупреждений по ключам (чат, пользователь).
// Отсутствующий ключ эквивалентен нулю. Каждая мутация синхронно
// записывается в хранилище; при ошибке записи состояние в памяти
// остаётся авторитетным до перезапуска.
type Ledger struct {
	log    zerolog.Logger
	store  domain.LedgerStore
	mu     sync.Mutex
	counts map[domain.IdentityKey]int
}

// NewLedger создаёт журнал поверх хранилища.
func NewLedger(store domain.LedgerStore, logger zerolog.Logger) *Ledger {
	return &Ledger{
		log:    logger,
		store:  store,
		counts: make(map[domain.IdentityKey]int),
	}
}

// Load читает журнал из хранилища. Отсутствие данных — пустой журнал.
func (l *Ledger) Load(ctx context.Context) error {
	counts, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if counts == nil {
		counts = make(map[domain.IdentityKey]int)
	}
	l.mu.Lock()
	l.counts = counts
	l.mu.Unlock()
	return nil
}

// Increment увеличивает счётчик и возвращает новое значение.
// Инкремент и запись атомарны относительно конкурентных мутаций.
func (l *Ledger) Increment(ctx context.Context, key domain.IdentityKey) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	count := l.counts[key]
	l.persistLocked(ctx)
	return count
}

// Reset удаляет запись и сообщает, существовала ли она.
func (l *Ledger) Reset(ctx context.Context, key domain.IdentityKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.counts[key]; !ok {
		return false
	}
	delete(l.counts, key)
	l.persistLocked(ctx)
	return true
}

// Get возвращает текущий счётчик, ноль для отсутствующего ключа.
func (l *Ledger) Get(key domain.IdentityKey) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[key]
}

// Snapshot возвращает копию журнала.
func (l *Ledger) Snapshot() map[domain.IdentityKey]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

// Location возвращает адрес хранилища для диагностики.
func (l *Ledger) Location() string {
	return l.store.Location()
}

func (l *Ledger) copyLocked() map[domain.IdentityKey]int {
	snapshot := make(map[domain.IdentityKey]int, len(l.counts))
	for key, count := range l.counts {
		snapshot[key] = count
	}
	return snapshot
}

func (l *Ledger) persistLocked(ctx context.Context) {
	if err := l.store.Persist(ctx, l.copyLocked()); err != nil {
		metrics.LedgerPersistErrors.Inc()
		l.log.Error().Err(err).Str("store", l.store.Location()).Msg("не удалось записать журнал предупреждений, изменения живут только в памяти")
	}
}
