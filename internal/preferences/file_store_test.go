package preferences

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"circuitbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uploads", "ab_prefs.json")
	return NewFileStore(path, zap.NewNop()), path
}

func TestFileStore_LeaningUnknownUserIsNeutral(t *testing.T) {
	store, _ := newTestFileStore(t)
	assert.Equal(t, models.LeaningNeutral, store.Leaning(context.Background(), "nobody"))
}

func TestFileStore_RecordChoiceIncrements(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)

	c := store.RecordChoice(ctx, "u1", models.StyleConcise)
	assert.Equal(t, models.StyleCounter{Concise: 1, Detailed: 0}, c)

	c = store.RecordChoice(ctx, "u1", models.StyleConcise)
	assert.Equal(t, models.StyleCounter{Concise: 2, Detailed: 0}, c)
	assert.Equal(t, models.LeaningConcise, store.Leaning(ctx, "u1"))

	// Другие пользователи не затрагиваются
	assert.Equal(t, models.StyleCounter{}, store.Counter("u2"))

	// Файл - плоский объект userId -> {concise, detailed}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"u1":{"concise":2,"detailed":0}}`, string(data))
}

func TestFileStore_TieFavoursDetailed(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	store.RecordChoice(ctx, "u1", models.StyleConcise)
	store.RecordChoice(ctx, "u1", models.StyleDetailed)

	assert.Equal(t, models.LeaningDetailed, store.Leaning(ctx, "u1"))
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, store.Load())
	assert.Equal(t, models.LeaningNeutral, store.Leaning(context.Background(), "u1"))

	// Следующая запись перезаписывает испорченный файл
	c := store.RecordChoice(context.Background(), "u1", models.StyleDetailed)
	assert.Equal(t, models.StyleCounter{Detailed: 1}, c)
	assert.Equal(t, map[string]models.StyleCounter{"u1": {Detailed: 1}}, store.Load())
}

func TestFileStore_MissingFieldsDefaultToZero(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"u1":{"detailed":4}}`), 0o644))

	assert.Equal(t, models.StyleCounter{Concise: 0, Detailed: 4}, store.Counter("u1"))
}

func TestFileStore_SaveFailureIsAbsorbed(t *testing.T) {
	dir := t.TempDir()
	// Путь указывает внутрь обычного файла - каталог создать нельзя
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := NewFileStore(filepath.Join(blocker, "ab_prefs.json"), zap.NewNop())

	var c models.StyleCounter
	assert.NotPanics(t, func() {
		c = store.RecordChoice(context.Background(), "u1", models.StyleConcise)
	})
	// Возвращается посчитанное значение, хотя на диск оно не попало
	assert.Equal(t, models.StyleCounter{Concise: 1}, c)
	assert.Empty(t, store.Load())
}

// Параллельные выборы не сериализованы: часть инкрементов может потеряться.
// Тест фиксирует только границы, а не точное значение.
func TestFileStore_ConcurrentChoicesMayLoseUpdates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.RecordChoice(ctx, "u1", models.StyleDetailed)
		}()
	}
	wg.Wait()

	got := store.Counter("u1")
	assert.GreaterOrEqual(t, got.Detailed, 1)
	assert.LessOrEqual(t, got.Detailed, writers)
	assert.Zero(t, got.Concise)
}
