package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tg-guard-bot/internal/domain"
)

// FileStore хранит журнал в одном JSON-файле. Запись идёт во временный
// файл рядом с целевым с последующим rename, поэтому читатель никогда не
// видит частично записанный журнал.
type FileStore struct {
	path string
}

// NewFileStore создаёт файловое хранилище по указанному пути.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает журнал. Отсутствующий или пустой файл — пустой журнал.
func (s *FileStore) Load(ctx context.Context) (map[domain.IdentityKey]int, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[domain.IdentityKey]int{}, nil
		}
		return nil, fmt.Errorf("чтение %s: %w", s.path, err)
	}
	if strings.TrimSpace(string(payload)) == "" {
		return map[domain.IdentityKey]int{}, nil
	}
	counts, err := decodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("файл %s: %w", s.path, err)
	}
	return counts, nil
}

// Persist атомарно переписывает файл журнала целиком.
func (s *FileStore) Persist(ctx context.Context, snapshot map[domain.IdentityKey]int) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("запись %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("синхронизация %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("замена %s: %w", s.path, err)
	}
	return nil
}

// Location возвращает путь к файлу журнала.
func (s *FileStore) Location() string {
	return s.path
}

var _ domain.LedgerStore = (*FileStore)(nil)
