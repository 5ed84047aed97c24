package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/lifecycle"
	"github.com/participium/participium-backend/internal/models"
	"github.com/participium/participium-backend/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrPhotosRequired     = errors.New("at least one photo is required")
	ErrTooManyPhotos      = errors.New("a report can have at most 3 photos")
	ErrInvalidStatus      = errors.New("invalid target status")
	ErrNotPendingApproval = errors.New("not allowed to change status of a report which is not in the pending approval status")
	ErrNoteRequired       = errors.New("A note is required when report is rejected")
	ErrStatusNotAllowed   = errors.New("not allowed to change status")
	ErrNotAssignee        = errors.New("report is not assigned to you")
	ErrCategoryNotHandled = errors.New("does not handle this category")
	ErrOfficerNotFound    = errors.New("officer not found")
	ErrMaintainerNotFound = errors.New("external maintainer not found")
	ErrNoOfficerAvailable = errors.New("no officer available for this category")
)

// Geocoder resolves coordinates to an address. Satisfied by
// geocode.Client.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

type ReportService struct {
	db            *gorm.DB
	photos        storage.PhotoStore
	geocoder      Geocoder
	notifications *NotificationService
}

func NewReportService(db *gorm.DB, photos storage.PhotoStore, geocoder Geocoder, notifications *NotificationService) *ReportService {
	return &ReportService{db: db, photos: photos, geocoder: geocoder, notifications: notifications}
}

// Create persists a citizen submission with status pending_approval.
// Photos are uploaded to the external store first; if the database write
// then fails, the just-uploaded objects are destroyed again.
func (s *ReportService) Create(ctx context.Context, userID uint, req *dto.CreateReportRequest, files []*multipart.FileHeader) (*models.Report, error) {
	if len(files) == 0 {
		return nil, ErrPhotosRequired
	}
	if len(files) > 3 {
		return nil, ErrTooManyPhotos
	}

	var category models.Category
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		return nil, ErrCategoryNotFound
	}

	address := strings.TrimSpace(req.Address)
	if address == "" && s.geocoder != nil {
		geoCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		resolved, err := s.geocoder.Reverse(geoCtx, req.Latitude, req.Longitude)
		cancel()
		if err != nil {
			slog.Warn("reverse geocoding failed", "error", err, "lat", req.Latitude, "lng", req.Longitude)
		} else {
			address = resolved
		}
	}

	uploaded, err := s.uploadPhotos(ctx, files)
	if err != nil {
		return nil, err
	}

	report := models.Report{
		Title:       req.Title,
		Description: req.Description,
		Address:     address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CategoryID:  category.ID,
		UserID:      userID,
		IsAnonymous: req.IsAnonymous,
		Status:      models.StatusPendingApproval,
	}
	for _, u := range uploaded {
		report.Photos = append(report.Photos, models.ReportPhoto{URL: u.URL, PublicID: u.PublicID})
	}

	if err := s.db.Create(&report).Error; err != nil {
		s.destroyPhotos(ctx, uploaded)
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	report.Category = category
	return &report, nil
}

func (s *ReportService) uploadPhotos(ctx context.Context, files []*multipart.FileHeader) ([]*storage.UploadedPhoto, error) {
	var uploaded []*storage.UploadedPhoto
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.destroyPhotos(ctx, uploaded)
			return nil, fmt.Errorf("failed to open photo %s: %w", fh.Filename, err)
		}
		u, err := s.photos.Upload(ctx, f, "report_"+uuid.NewString())
		f.Close()
		if err != nil {
			s.destroyPhotos(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload photo %s: %w", fh.Filename, err)
		}
		uploaded = append(uploaded, u)
	}
	return uploaded, nil
}

func (s *ReportService) destroyPhotos(ctx context.Context, uploaded []*storage.UploadedPhoto) {
	for _, u := range uploaded {
		if err := s.photos.Destroy(ctx, u.PublicID); err != nil {
			slog.Error("failed to clean up uploaded photo", "public_id", u.PublicID, "error", err)
		}
	}
}

// Review is the public-relations triage: approve-and-assign or reject.
// Only legal while the report is pending approval.
func (s *ReportService) Review(reviewerID, reportID uint, req *dto.ReviewReportRequest) (*models.Report, error) {
	report, err := s.getReport(reportID)
	if err != nil {
		return nil, err
	}

	target := models.ReportStatus(req.Status)
	if !lifecycle.ReviewTarget(target) {
		return nil, fmt.Errorf("%w: status must be assigned or rejected", ErrInvalidStatus)
	}
	if report.Status != models.StatusPendingApproval {
		return nil, ErrNotPendingApproval
	}

	categoryID := report.CategoryID
	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			return nil, ErrCategoryNotFound
		}
		categoryID = category.ID
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      target,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
		"category_id": categoryID,
	}

	var message string
	switch target {
	case models.StatusRejected:
		if req.Note == nil || strings.TrimSpace(*req.Note) == "" {
			return nil, ErrNoteRequired
		}
		updates["note"] = strings.TrimSpace(*req.Note)
		message = "Your report was rejected: " + strings.TrimSpace(*req.Note)

	case models.StatusAssigned:
		var officer *models.User
		if req.OfficerID != nil {
			officer, err = s.getOfficer(*req.OfficerID)
			if err != nil {
				return nil, err
			}
			if !officer.HandlesCategory(categoryID) {
				return nil, ErrCategoryNotHandled
			}
		} else {
			officer, err = s.autoSelectOfficer(categoryID)
			if err != nil {
				return nil, err
			}
		}
		updates["assigned_to"] = officer.ID
		// An assignment note never survives approval.
		updates["note"] = nil
		message = "Your report was approved and assigned to the responsible office."
	}

	// Single conditional update: a concurrent reviewer loses the race
	// and sees the pending-approval error instead of overwriting.
	result := s.db.Model(&models.Report{}).
		Where("id = ? AND status = ?", report.ID, models.StatusPendingApproval).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotPendingApproval
	}

	if _, err := s.notifications.Notify(report.UserID, models.NotificationStatusUpdate, report.ID, nil,
		"Report "+string(target), message); err != nil {
		slog.Error("failed to notify citizen", "report_id", report.ID, "error", err)
	}

	return s.getReport(report.ID)
}

// OfficerUpdateStatus moves an assigned report along the working graph
// on behalf of the assigned tech officer.
func (s *ReportService) OfficerUpdateStatus(officerID, reportID uint, status string) (*models.Report, error) {
	report, err := s.getReport(reportID)
	if err != nil {
		return nil, err
	}
	return s.progress(report, models.ReportStatus(status), "assigned_to", officerID)
}

// MaintainerUpdateStatus mirrors OfficerUpdateStatus for the external
// maintainer set on the report. The maintainer's company must cover the
// report's category.
func (s *ReportService) MaintainerUpdateStatus(maintainer *models.User, reportID uint, status string) (*models.Report, error) {
	report, err := s.getReport(reportID)
	if err != nil {
		return nil, err
	}
	if !maintainer.HandlesCategory(report.CategoryID) {
		return nil, ErrCategoryNotHandled
	}
	return s.progress(report, models.ReportStatus(status), "external_user", maintainer.ID)
}

func (s *ReportService) progress(report *models.Report, target models.ReportStatus, assigneeColumn string, actorID uint) (*models.Report, error) {
	if !lifecycle.ProgressTarget(target) {
		return nil, fmt.Errorf("%w: status must be in_progress, suspended or resolved", ErrInvalidStatus)
	}

	if !lifecycle.Workable(report.Status) {
		return nil, ErrStatusNotAllowed
	}

	assignee := report.AssignedTo
	if assigneeColumn == "external_user" {
		assignee = report.ExternalUser
	}
	if assignee == nil || *assignee != actorID {
		return nil, ErrNotAssignee
	}

	if !lifecycle.CanProgress(report.Status, target) {
		return nil, ErrStatusNotAllowed
	}

	// Guarded write: current status and assignee are part of the WHERE
	// clause, so racing transitions cannot both win.
	result := s.db.Model(&models.Report{}).
		Where("id = ? AND status = ? AND "+assigneeColumn+" = ?", report.ID, report.Status, actorID).
		Update("status", target)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update report status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStatusNotAllowed
	}

	if _, err := s.notifications.Notify(report.UserID, models.NotificationStatusUpdate, report.ID, nil,
		"Report "+string(target), fmt.Sprintf("The status of your report %q changed to %s.", report.Title, target)); err != nil {
		slog.Error("failed to notify citizen", "report_id", report.ID, "error", err)
	}

	return s.getReport(report.ID)
}

// AssignExternal delegates an assigned report to an external maintainer.
// No status change.
func (s *ReportService) AssignExternal(officerID, reportID, maintainerID uint) (*models.Report, error) {
	report, err := s.getReport(reportID)
	if err != nil {
		return nil, err
	}

	if report.Status != models.StatusAssigned {
		return nil, ErrStatusNotAllowed
	}
	if report.AssignedTo == nil || *report.AssignedTo != officerID {
		return nil, ErrNotAssignee
	}

	var maintainer models.User
	if err := s.db.Preload("Roles").Preload("Company.Categories").First(&maintainer, maintainerID).Error; err != nil {
		return nil, ErrMaintainerNotFound
	}
	if !maintainer.HasRole(models.RoleExternalMaintainer) {
		return nil, ErrMaintainerNotFound
	}
	if !maintainer.HandlesCategory(report.CategoryID) {
		return nil, ErrCategoryNotHandled
	}

	result := s.db.Model(&models.Report{}).
		Where("id = ? AND status = ? AND assigned_to = ?", report.ID, models.StatusAssigned, officerID).
		Update("external_user", maintainer.ID)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to assign external maintainer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStatusNotAllowed
	}

	if _, err := s.notifications.Notify(maintainer.ID, models.NotificationAssignment, report.ID, nil,
		"New assignment", fmt.Sprintf("Report %q was assigned to your company.", report.Title)); err != nil {
		slog.Error("failed to notify maintainer", "report_id", report.ID, "error", err)
	}

	return s.getReport(report.ID)
}

// GetByID returns a report with category and photos preloaded.
func (s *ReportService) GetByID(reportID uint) (*models.Report, error) {
	return s.getReport(reportID)
}

// ListPublic returns reports for the public map view, optionally
// filtered by status and category.
func (s *ReportService) ListPublic(status string, categoryID uint) ([]models.Report, error) {
	query := s.db.Preload("Category").Preload("Photos").Preload("User").
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ListByUser returns a citizen's own reports.
func (s *ReportService) ListByUser(userID uint) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.Preload("Category").Preload("Photos").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// ListAssigned returns the actor's work queue: reports where the given
// column points at them.
func (s *ReportService) ListAssigned(assigneeColumn string, userID uint) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.Preload("Category").Preload("Photos").
		Where(assigneeColumn+" = ?", userID).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

func (s *ReportService) getReport(reportID uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.Preload("Category").Preload("Photos").Preload("User").First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) getOfficer(officerID uint) (*models.User, error) {
	var officer models.User
	if err := s.db.Preload("Roles").First(&officer, officerID).Error; err != nil {
		return nil, ErrOfficerNotFound
	}
	if !officer.HasRole(models.RoleTechOfficer) {
		return nil, ErrOfficerNotFound
	}
	return &officer, nil
}

// autoSelectOfficer picks the tech officer handling the category with
// the fewest open reports, lowest id on ties.
func (s *ReportService) autoSelectOfficer(categoryID uint) (*models.User, error) {
	var officers []models.User
	err := s.db.
		Joins("JOIN user_roles ur ON ur.user_id = users.id").
		Joins("JOIN roles r ON r.id = ur.role_id").
		Where("r.type = ? AND r.category_id = ?", models.RoleTechOfficer, categoryID).
		Order("users.id").
		Find(&officers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load officers: %w", err)
	}
	if len(officers) == 0 {
		return nil, ErrNoOfficerAvailable
	}

	best := &officers[0]
	bestLoad := int64(-1)
	for i := range officers {
		var load int64
		if err := s.db.Model(&models.Report{}).
			Where("assigned_to = ? AND status NOT IN ?", officers[i].ID,
				[]models.ReportStatus{models.StatusResolved, models.StatusRejected}).
			Count(&load).Error; err != nil {
			return nil, fmt.Errorf("failed to count officer load: %w", err)
		}
		if bestLoad == -1 || load < bestLoad {
			best = &officers[i]
			bestLoad = load
		}
	}
	return best, nil
}
