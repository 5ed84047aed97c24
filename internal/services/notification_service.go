package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/participium/participium-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Broadcaster pushes a payload to a user's live connections. Satisfied
// by realtime.Hub; a nil broadcaster disables pushes.
type Broadcaster interface {
	Push(userID uint, payload interface{})
}

type NotificationService struct {
	db  *gorm.DB
	hub Broadcaster
}

func NewNotificationService(db *gorm.DB, hub Broadcaster) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// Notify persists a notification row and pushes it over the realtime
// channel. The push is fire-and-forget; only the row write can fail the
// caller.
func (s *NotificationService) Notify(userID uint, typ string, reportID uint, commentID *uint, title, message string) (*models.Notification, error) {
	n := models.Notification{
		UserID:    userID,
		Type:      typ,
		ReportID:  reportID,
		CommentID: commentID,
		Title:     title,
		Message:   message,
	}

	payload := map[string]interface{}{"report_id": reportID}
	if commentID != nil {
		payload["comment_id"] = *commentID
	}
	if b, err := json.Marshal(payload); err == nil {
		n.Payload = datatypes.JSON(b)
	}

	if err := s.db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.Push(userID, &n)
	}
	return &n, nil
}

func (s *NotificationService) ListForUser(userID uint, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(100)
	if unreadOnly {
		query = query.Where("is_read = false")
	}
	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications read. Rows belonging to
// other users are invisible here.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkReportRead marks all of the user's notifications of the given type
// for a report as read. Called as a side effect of opening the report or
// its comment thread.
func (s *NotificationService) MarkReportRead(userID, reportID uint, typ string) {
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND report_id = ? AND type = ?", userID, reportID, typ).
		Update("is_read", true).Error; err != nil {
		slog.Error("failed to mark notifications read", "error", err, "report_id", reportID)
	}
}
