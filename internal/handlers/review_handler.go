package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/services"
)

// ReviewHandler exposes the public-relations triage endpoint.
type ReviewHandler struct {
	reportService *services.ReportService
}

func NewReviewHandler(reportService *services.ReportService) *ReviewHandler {
	return &ReviewHandler{reportService: reportService}
}

func (h *ReviewHandler) Review(c *fiber.Ctx) error {
	reviewer := middleware.CurrentUser(c)
	if reviewer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	reportID, err := parseID(c, "reportId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.ReviewReportRequest
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

	report, err := h.reportService.Review(reviewer.ID, reportID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidStatus),
			errors.Is(err, services.ErrNoteRequired),
			errors.Is(err, services.ErrCategoryNotFound),
			errors.Is(err, services.ErrOfficerNotFound),
			errors.Is(err, services.ErrNoOfficerAvailable):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrNotPendingApproval),
			errors.Is(err, services.ErrCategoryNotHandled):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		// DAO failures surface the underlying error message.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(dto.NewReportResponse(report))
}
