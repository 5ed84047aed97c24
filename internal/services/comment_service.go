package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/participium/participium-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTextRequired    = errors.New("text is required")
	ErrContentRejected = errors.New("comment rejected")
	ErrNotParticipant  = errors.New("not a participant of this report")
)

type CommentService struct {
	db            *gorm.DB
	notifications *NotificationService
	filter        *ContentFilter
}

func NewCommentService(db *gorm.DB, notifications *NotificationService, filter *ContentFilter) *CommentService {
	return &CommentService{db: db, notifications: notifications, filter: filter}
}

// Add appends a comment to a report thread and notifies the counterpart
// party: officer and maintainer exchange internal comments, citizen and
// staff exchange external ones.
func (s *CommentService) Add(user *models.User, reportID uint, text string, internal bool) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}
	if ok, reason := s.filter.Check(text); !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, s.filter.RejectionMessage(reason))
	}

	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	if internal && !isAssignee(&report, user.ID) {
		return nil, ErrNotParticipant
	}

	comment := models.Comment{
		ReportID: report.ID,
		UserID:   user.ID,
		Text:     text,
		Internal: internal,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if recipient := counterpart(&report, user.ID, internal); recipient != 0 {
		if _, err := s.notifications.Notify(recipient, models.NotificationNewComment, report.ID, &comment.ID,
			"New comment", fmt.Sprintf("New comment on report %q.", report.Title)); err != nil {
			slog.Error("failed to notify comment counterpart", "report_id", report.ID, "error", err)
		}
	}

	comment.User = *user
	return &comment, nil
}

// List returns a report's thread in chronological order and marks the
// caller's comment notifications for the report as read.
func (s *CommentService) List(user *models.User, reportID uint, internal bool) ([]models.Comment, error) {
	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	if internal && !isAssignee(&report, user.ID) {
		return nil, ErrNotParticipant
	}

	var comments []models.Comment
	if err := s.db.Preload("User").
		Where("report_id = ? AND internal = ?", report.ID, internal).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	s.notifications.MarkReportRead(user.ID, report.ID, models.NotificationNewComment)
	return comments, nil
}

func isAssignee(report *models.Report, userID uint) bool {
	if report.AssignedTo != nil && *report.AssignedTo == userID {
		return true
	}
	if report.ExternalUser != nil && *report.ExternalUser == userID {
		return true
	}
	return false
}

// counterpart picks the notification recipient for a new comment, or 0
// when there is nobody to notify yet.
func counterpart(report *models.Report, authorID uint, internal bool) uint {
	if internal {
		if report.AssignedTo != nil && *report.AssignedTo == authorID && report.ExternalUser != nil {
			return *report.ExternalUser
		}
		if report.ExternalUser != nil && *report.ExternalUser == authorID && report.AssignedTo != nil {
			return *report.AssignedTo
		}
		return 0
	}
	if authorID == report.UserID {
		if report.AssignedTo != nil {
			return *report.AssignedTo
		}
		return 0
	}
	return report.UserID
}
