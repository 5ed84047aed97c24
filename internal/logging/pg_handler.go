package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/participium/participium-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	logBatchSize     = 50
	logFlushInterval = 5 * time.Second
)

// PGHandler is an slog.Handler that persists ERROR+ records to the
// system_logs table. Records go through a buffered channel to a single
// writer goroutine, which flushes in batches so a burst of errors does
// not turn into a burst of inserts.
type PGHandler struct {
	db      *gorm.DB
	entries chan models.SystemLog
	done    chan struct{}
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	h := &PGHandler{
		db:      db,
		entries: make(chan models.SystemLog, 256),
		done:    make(chan struct{}),
	}
	go h.writer()
	return h
}

func (h *PGHandler) writer() {
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	batch := make([]models.SystemLog, 0, logBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := h.db.CreateInBatches(batch, logBatchSize).Error; err != nil {
			// Stderr directly; going through slog again would loop.
			fmt.Fprintf(os.Stderr, "pg log flush failed: %v (%d entries dropped)\n", err, len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-h.entries:
			batch = append(batch, entry)
			if len(batch) >= logBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-h.done:
			for {
				select {
				case entry := <-h.entries:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Stop drains the channel and flushes the remaining entries.
func (h *PGHandler) Stop() {
	close(h.done)
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "trace_id":
			entry.TraceID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			if f, ok := a.Value.Any().(float64); ok {
				entry.LatencyMs = int(math.Round(f))
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	// Never block the logging caller; drop when the writer is behind.
	select {
	case h.entries <- entry:
	default:
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
