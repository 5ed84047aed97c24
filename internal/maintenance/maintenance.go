// Package maintenance schedules the nightly retention jobs.
package maintenance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/participium/participium-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	systemLogRetentionDays    = 30
	notificationRetentionDays = 90
)

// Start registers the retention jobs and starts the cron engine. The
// returned cron must be stopped on shutdown.
func Start(db *gorm.DB) (*cron.Cron, error) {
	c := cron.New()

	// 03:00, system logs past retention.
	_, err := c.AddFunc("0 3 * * *", func() {
		cutoff := time.Now().AddDate(0, 0, -systemLogRetentionDays)
		result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
		if result.Error != nil {
			slog.Error("system log cleanup failed", "error", result.Error)
		} else if result.RowsAffected > 0 {
			slog.Info("system log cleanup completed", "deleted", result.RowsAffected)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule system log cleanup: %w", err)
	}

	// 03:30, read notifications past retention. Unread rows are kept.
	_, err = c.AddFunc("30 3 * * *", func() {
		cutoff := time.Now().AddDate(0, 0, -notificationRetentionDays)
		result := db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
		if result.Error != nil {
			slog.Error("notification cleanup failed", "error", result.Error)
		} else if result.RowsAffected > 0 {
			slog.Info("notification cleanup completed", "deleted", result.RowsAffected)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule notification cleanup: %w", err)
	}

	c.Start()
	return c, nil
}
