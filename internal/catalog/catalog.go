// Package catalog хранит кэш разрешенных моделей и периодически обновляет его у провайдера.
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"circuitbot/internal/ai"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	modelRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitbot_model_refresh_total",
			Help: "Total number of model list refreshes by outcome.",
		},
		[]string{"status"},
	)
	modelsCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circuitbot_models_cached",
			Help: "Number of models in the permitted model cache.",
		},
	)
)

// Options - фильтры списка моделей.
type Options struct {
	DefaultModel string
	// Пустой список - без фильтра по префиксу
	Prefixes []string
	// Пустой список - разрешены все модели, прошедшие фильтр префиксов
	Allowed []string
}

// Snapshot - состояние кэша для GET /models.
type Snapshot struct {
	Models      []string
	Default     string
	Error       string // текст последней ошибки обновления, пусто если успешно
	RefreshedAt time.Time
}

// Catalog - разделяемый read-mostly список моделей.
// Запросы читают кэш и никогда не ждут обновления.
type Catalog struct {
	lister ai.ModelLister
	opts   Options
	logger *zap.Logger

	mu          sync.RWMutex
	models      []string
	lastErr     string
	refreshedAt time.Time
}

// New создает каталог. До первого обновления в кэше только модель по умолчанию.
func New(lister ai.ModelLister, opts Options, logger *zap.Logger) *Catalog {
	return &Catalog{
		lister: lister,
		opts:   opts,
		logger: logger.Named("Catalog"),
		models: []string{opts.DefaultModel},
	}
}

// Refresh запрашивает список у провайдера. При ошибке прежний кэш сохраняется.
func (c *Catalog) Refresh(ctx context.Context) error {
	ids, err := c.lister.ListModels(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		modelRefreshTotal.WithLabelValues("error").Inc()
		c.logger.Warn("Model refresh failed, keeping previous cache", zap.Error(err))
		return err
	}

	filtered := c.filter(ids)

	c.mu.Lock()
	c.models = filtered
	c.lastErr = ""
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	modelRefreshTotal.WithLabelValues("success").Inc()
	modelsCached.Set(float64(len(filtered)))
	c.logger.Info("Models refreshed", zap.Int("count", len(filtered)), zap.Strings("first", head(filtered, 10)))
	return nil
}

// Run обновляет кэш сразу и затем каждые interval, пока ctx не отменен.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	_ = c.Refresh(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Model refresher stopped")
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Resolve возвращает hint, если модель есть в кэше, иначе модель по умолчанию.
func (c *Catalog) Resolve(hint string) string {
	if hint == "" {
		return c.opts.DefaultModel
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if m == hint {
			return hint
		}
	}
	return c.opts.DefaultModel
}

// Snapshot возвращает копию текущего состояния.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	models := make([]string, len(c.models))
	copy(models, c.models)
	return Snapshot{
		Models:      models,
		Default:     c.opts.DefaultModel,
		Error:       c.lastErr,
		RefreshedAt: c.refreshedAt,
	}
}

// filter оставляет модели с нужными префиксами и из белого списка,
// добавляет модель по умолчанию в начало если ее нет, убирает дубли.
func (c *Catalog) filter(ids []string) []string {
	allowed := make(map[string]struct{}, len(c.opts.Allowed))
	for _, a := range c.opts.Allowed {
		if a = strings.TrimSpace(a); a != "" {
			allowed[a] = struct{}{}
		}
	}

	kept := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if !c.hasPrefix(id) {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		kept = append(kept, id)
	}

	hasDefault := false
	for _, id := range kept {
		if id == c.opts.DefaultModel {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		kept = append([]string{c.opts.DefaultModel}, kept...)
	}

	seen := make(map[string]struct{}, len(kept))
	out := kept[:0]
	for _, id := range kept {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Catalog) hasPrefix(id string) bool {
	active := 0
	for _, p := range c.opts.Prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		active++
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return active == 0
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
