package maintenance

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/participium/participium-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}, &models.Notification{}))
	return db
}

func TestRetentionJobs(t *testing.T) {
	db := newTestDB(t)

	c, err := Start(db)
	require.NoError(t, err)
	defer c.Stop()
	require.Len(t, c.Entries(), 2)

	old := time.Now().AddDate(0, 0, -120)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Level: "ERROR", Message: "stale", Timestamp: old}).Error)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Level: "ERROR", Message: "fresh", Timestamp: time.Now()}).Error)

	readOld := models.Notification{UserID: 1, Type: models.NotificationStatusUpdate, Title: "read", IsRead: true, CreatedAt: old}
	unreadOld := models.Notification{UserID: 1, Type: models.NotificationStatusUpdate, Title: "unread", IsRead: false, CreatedAt: old}
	readFresh := models.Notification{UserID: 1, Type: models.NotificationStatusUpdate, Title: "recent", IsRead: true}
	require.NoError(t, db.Create(&readOld).Error)
	require.NoError(t, db.Create(&unreadOld).Error)
	require.NoError(t, db.Create(&readFresh).Error)

	// Run both jobs synchronously instead of waiting for the schedule.
	for _, entry := range c.Entries() {
		entry.Job.Run()
	}

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "fresh", logs[0].Message)

	// Old read notifications go; unread ones stay regardless of age.
	var titles []string
	require.NoError(t, db.Model(&models.Notification{}).Order("id").Pluck("title", &titles).Error)
	assert.Equal(t, []string{"unread", "recent"}, titles)
}
