package storage

import (
	"encoding/json"
	"fmt"

	"tg-guard-bot/internal/domain"
)

// encodeSnapshot сериализует журнал в плоский JSON-объект
// {"<chat_id>:<user_id>": count}.
func encodeSnapshot(snapshot map[domain.IdentityKey]int) ([]byte, error) {
	flat := make(map[string]int, len(snapshot))
	for key, count := range snapshot {
		flat[key.String()] = count
	}
	payload, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("сериализация журнала: %w", err)
	}
	return payload, nil
}

// decodeSnapshot разбирает плоский JSON-объект журнала. Записи с
// нераспознаваемым ключом или отрицательным счётчиком пропускаются.
func decodeSnapshot(payload []byte) (map[domain.IdentityKey]int, error) {
	var flat map[string]int
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, fmt.Errorf("разбор журнала: %w", err)
	}
	counts := make(map[domain.IdentityKey]int, len(flat))
	for raw, count := range flat {
		key, err := domain.ParseIdentityKey(raw)
		if err != nil || count <= 0 {
			continue
		}
		counts[key] = count
	}
	return counts, nil
}
