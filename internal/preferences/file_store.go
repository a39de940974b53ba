package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"circuitbot/internal/models"

	"go.uber.org/zap"
)

var _ Store = (*FileStore)(nil)

// FileStore хранит всю карту userId -> счетчики в одном JSON файле.
// Файл читается целиком и перезаписывается целиком при каждой мутации.
//
// Последовательность load-mutate-save НЕ сериализована: параллельные
// RecordChoice могут потерять инкремент (last writer wins).
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore создает файловое хранилище. Каталог файла создается при необходимости.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	s := &FileStore{
		path:   path,
		logger: logger.Named("FilePrefsStore"),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("Failed to create prefs directory", zap.String("path", path), zap.Error(err))
	}
	return s
}

// Load читает всё хранилище. Отсутствующий или испорченный файл дает пустую карту.
func (s *FileStore) Load() map[string]models.StyleCounter {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read prefs file, treating as empty", zap.String("path", s.path), zap.Error(err))
		}
		return map[string]models.StyleCounter{}
	}

	prefs := map[string]models.StyleCounter{}
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Warn("Prefs file is corrupt, treating as empty", zap.String("path", s.path), zap.Error(err))
		return map[string]models.StyleCounter{}
	}
	return prefs
}

// Save сериализует карту и перезаписывает файл. Ошибка только логируется.
func (s *FileStore) Save(prefs map[string]models.StyleCounter) {
	if err := s.write(prefs); err != nil {
		s.logger.Error("Failed to save prefs", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *FileStore) write(prefs map[string]models.StyleCounter) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	// Пишем во временный файл рядом и переименовываем, чтобы читатель не увидел половину файла
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ab_prefs-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Counter возвращает счетчики пользователя (нули, если записи нет).
func (s *FileStore) Counter(userID string) models.StyleCounter {
	return s.Load()[userID]
}

// Leaning реализует Store.
func (s *FileStore) Leaning(_ context.Context, userID string) models.Leaning {
	return s.Counter(userID).Leaning()
}

// RecordChoice реализует Store.
func (s *FileStore) RecordChoice(_ context.Context, userID string, style models.Style) models.StyleCounter {
	prefs := s.Load()
	counter := prefs[userID]
	counter.Increment(style)
	prefs[userID] = counter
	s.Save(prefs)

	s.logger.Debug("Recorded A/B choice",
		zap.String("userID", userID),
		zap.String("style", string(style)),
		zap.Int("concise", counter.Concise),
		zap.Int("detailed", counter.Detailed),
	)
	return counter
}
