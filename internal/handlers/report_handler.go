package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/models"
	"github.com/participium/participium-backend/internal/services"
)

type ReportHandler struct {
	reportService       *services.ReportService
	notificationService *services.NotificationService
}

func NewReportHandler(reportService *services.ReportService, notificationService *services.NotificationService) *ReportHandler {
	return &ReportHandler{reportService: reportService, notificationService: notificationService}
}

// Create handles the multipart citizen submission. One to three photos
// are required.
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if msg := validateStruct(&req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: msg,
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Multipart form required",
		})
	}
	files := form.File["photos"]

	report, err := h.reportService.Create(c.Context(), userID, &req, files)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPhotosRequired),
			errors.Is(err, services.ErrTooManyPhotos),
			errors.Is(err, services.ErrCategoryNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewReportResponse(report))
}

// List is the public map view.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	status := c.Query("status", "")
	categoryID, _ := strconv.Atoi(c.Query("category_id", "0"))

	reports, err := h.reportService.ListPublic(status, uint(categoryID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}
	return c.JSON(dto.NewReportListResponse(reports))
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	reportID, err := parseID(c, "reportId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	report, err := h.reportService.GetByID(reportID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch report",
		})
	}

	// Opening the own report clears its status notifications.
	if userID, err := middleware.UserID(c); err == nil && userID == report.UserID {
		h.notificationService.MarkReportRead(userID, report.ID, models.NotificationStatusUpdate)
	}

	return c.JSON(dto.NewReportResponse(report))
}

// ListMine returns the authenticated citizen's own reports.
func (h *ReportHandler) ListMine(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	reports, err := h.reportService.ListByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}
	return c.JSON(dto.NewReportListResponse(reports))
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
