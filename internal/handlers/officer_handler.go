package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/services"
)

// OfficerHandler exposes the tech-officer workflow: progressing assigned
// reports and delegating them to external maintainers.
type OfficerHandler struct {
	reportService *services.ReportService
}

func NewOfficerHandler(reportService *services.ReportService) *OfficerHandler {
	return &OfficerHandler{reportService: reportService}
}

func (h *OfficerHandler) UpdateStatus(c *fiber.Ctx) error {
	officer := middleware.CurrentUser(c)
	if officer == nil {
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

	var req dto.UpdateStatusRequest
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

	report, err := h.reportService.OfficerUpdateStatus(officer.ID, reportID, req.Status)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(dto.NewReportResponse(report))
}

func (h *OfficerHandler) AssignExternal(c *fiber.Ctx) error {
	officer := middleware.CurrentUser(c)
	if officer == nil {
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

	var req dto.AssignExternalRequest
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

	report, err := h.reportService.AssignExternal(officer.ID, reportID, req.ExternalMaintainerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportNotFound),
			errors.Is(err, services.ErrMaintainerNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrStatusNotAllowed),
			errors.Is(err, services.ErrNotAssignee),
			errors.Is(err, services.ErrCategoryNotHandled):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(dto.NewReportResponse(report))
}

// ListAssigned returns the officer's work queue.
func (h *OfficerHandler) ListAssigned(c *fiber.Ctx) error {
	officer := middleware.CurrentUser(c)
	if officer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	reports, err := h.reportService.ListAssigned("assigned_to", officer.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}
	return c.JSON(dto.NewReportListResponse(reports))
}

// transitionError maps the shared status-transition failures.
func transitionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrStatusNotAllowed),
		errors.Is(err, services.ErrNotAssignee),
		errors.Is(err, services.ErrCategoryNotHandled):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(),
	})
}
