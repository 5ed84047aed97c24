package dto

import (
	"time"

	"github.com/participium/participium-backend/internal/models"
)

type CreateReportRequest struct {
	Title       string  `form:"title" validate:"required,max=255"`
	Description string  `form:"description" validate:"required"`
	CategoryID  uint    `form:"category_id" validate:"required"`
	Address     string  `form:"address"`
	Latitude    float64 `form:"latitude" validate:"required,latitude"`
	Longitude   float64 `form:"longitude" validate:"required,longitude"`
	IsAnonymous bool    `form:"is_anonymous"`
}

type ReviewReportRequest struct {
	Status     string  `json:"status" validate:"required,oneof=assigned rejected"`
	Note       *string `json:"note"`
	CategoryID *uint   `json:"categoryId"`
	OfficerID  *uint   `json:"officerId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignExternalRequest struct {
	ExternalMaintainerID uint `json:"externalMaintainerId" validate:"required"`
}

type AuthorResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ReportResponse struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Category     models.Category `json:"category"`
	Status       string          `json:"status"`
	IsAnonymous  bool            `json:"is_anonymous"`
	AssignedTo   *uint           `json:"assigned_to,omitempty"`
	ExternalUser *uint           `json:"external_user,omitempty"`
	Note         *string         `json:"note,omitempty"`
	Photos       []string        `json:"photos"`
	Author       *AuthorResponse `json:"author,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewReportResponse maps a report to its API shape. The author is
// omitted for anonymous reports.
func NewReportResponse(r *models.Report) ReportResponse {
	resp := ReportResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Category:     r.Category,
		Status:       string(r.Status),
		IsAnonymous:  r.IsAnonymous,
		AssignedTo:   r.AssignedTo,
		ExternalUser: r.ExternalUser,
		Note:         r.Note,
		Photos:       make([]string, 0, len(r.Photos)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, p := range r.Photos {
		resp.Photos = append(resp.Photos, p.URL)
	}
	if !r.IsAnonymous && r.User.ID != 0 {
		resp.Author = &AuthorResponse{
			ID:        r.User.ID,
			FirstName: r.User.FirstName,
			LastName:  r.User.LastName,
		}
	}
	return resp
}

// NewReportListResponse maps a slice of reports.
func NewReportListResponse(reports []models.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, NewReportResponse(&reports[i]))
	}
	return out
}
