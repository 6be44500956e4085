package roster

import (
	"strconv"
	"strings"
	"sync"

	"tg-guard-bot/internal/domain"
)

// Directory — реестр участников: последние известные имя и username
// для каждого ключа (чат, пользователь). Обновляется при каждом
// наблюдении участника, последняя запись побеждает.
type Directory struct {
	mu      sync.RWMutex
	entries map[domain.IdentityKey]domain.RosterEntry
}

// NewDirectory создаёт пустой реестр.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[domain.IdentityKey]domain.RosterEntry)}
}

// Register запоминает участника чата. Идемпотентно.
func (d *Directory) Register(chatID int64, member domain.Member) {
	if member.ID == 0 {
		return
	}
	key := domain.IdentityKey{ChatID: chatID, UserID: member.ID}
	entry := domain.RosterEntry{
		DisplayName: member.DisplayName(),
		Handle:      strings.TrimPrefix(member.Handle, "@"),
	}
	d.mu.Lock()
	d.entries[key] = entry
	d.mu.Unlock()
}

// Match — кандидат, найденный по запросу.
type Match struct {
	Key   domain.IdentityKey
	Entry domain.RosterEntry
}

// Resolve ищет участников чата по свободному запросу: точное совпадение
// username, вхождение в отображаемое имя или точное совпадение числового id.
// Пустой запрос возвращает пустой список.
func (d *Directory) Resolve(chatID int64, query string) []Match {
	needle := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(query), "@"))
	if needle == "" {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var matches []Match
	for key, entry := range d.entries {
		if key.ChatID != chatID {
			continue
		}
		switch {
		case entry.Handle != "" && strings.ToLower(entry.Handle) == needle:
		case entry.DisplayName != "" && strings.Contains(strings.ToLower(entry.DisplayName), needle):
		case needle == strconv.FormatInt(key.UserID, 10):
		default:
			continue
		}
		matches = append(matches, Match{Key: key, Entry: entry})
	}
	return matches
}

// Get возвращает запись реестра, если участник известен.
func (d *Directory) Get(key domain.IdentityKey) (domain.RosterEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[key]
	return entry, ok
}
