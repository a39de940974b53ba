// Package visits ведет журналы посещений и использования API и считает по ним статистику.
package visits

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	visitFilePrefix = "visits-"
	visitFileSuffix = ".log"
	apiUsageFile    = "api-usage.log"
	dayLayout       = "2006-01-02"

	defaultBuffer = 1024
)

var droppedRecords = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "circuitbot_visit_records_dropped_total",
		Help: "Records dropped because the recorder queue was full or closed.",
	},
	[]string{"kind"},
)

// Visit - строка журнала посещений.
type Visit struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
}

// APIUsage - строка журнала вызовов /chat и /chat-ab.
type APIUsage struct {
	Timestamp       time.Time `json:"timestamp"`
	Endpoint        string    `json:"endpoint"`
	UserID          string    `json:"userId"`
	Model           string    `json:"model"`
	MessageCount    int       `json:"messageCount"`
	HasScreenImages bool      `json:"hasScreenImages"`
	VoiceEnabled    bool      `json:"voiceEnabled"`
	DeepResearch    bool      `json:"deepResearch"`
}

type record struct {
	file string
	line []byte
}

// Recorder дописывает записи в файлы журнала из отдельной горутины,
// чтобы запись на диск не задерживала ответ.
type Recorder struct {
	dir    string
	queue  chan record
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRecorder создает каталог журналов и запускает горутину записи.
func NewRecorder(dir string, buffer int, logger *zap.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir %s: %w", dir, err)
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	r := &Recorder{
		dir:    dir,
		queue:  make(chan record, buffer),
		logger: logger.Named("VisitRecorder"),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

// Dir возвращает каталог журналов.
func (r *Recorder) Dir() string {
	return r.dir
}

// RecordVisit ставит посещение в очередь. Никогда не блокирует.
func (r *Recorder) RecordVisit(v Visit) {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	v.Timestamp = v.Timestamp.UTC()
	file := visitFilePrefix + v.Timestamp.Format(dayLayout) + visitFileSuffix
	r.enqueue("visit", file, v)
}

// RecordAPIUsage ставит запись об использовании API в очередь. Никогда не блокирует.
func (r *Recorder) RecordAPIUsage(u APIUsage) {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}
	u.Timestamp = u.Timestamp.UTC()
	r.enqueue("api_usage", apiUsageFile, u)
}

func (r *Recorder) enqueue(kind, file string, v interface{}) {
	line, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("Failed to encode log record", zap.String("kind", kind), zap.Error(err))
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		droppedRecords.WithLabelValues(kind).Inc()
		return
	}
	select {
	case r.queue <- record{file: file, line: append(line, '\n')}:
	default:
		droppedRecords.WithLabelValues(kind).Inc()
		r.logger.Warn("Recorder queue full, record dropped", zap.String("kind", kind))
	}
}

func (r *Recorder) loop() {
	defer close(r.done)
	for rec := range r.queue {
		if err := r.appendLine(rec); err != nil {
			r.logger.Error("Error writing log record", zap.String("file", rec.file), zap.Error(err))
		}
	}
}

func (r *Recorder) appendLine(rec record) error {
	f, err := os.OpenFile(filepath.Join(r.dir, rec.file), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(rec.line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close дописывает очередь и останавливает горутину. Повторный вызов безопасен.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}
