package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/services"
)

// MaintainerHandler mirrors the officer status updates for external
// maintainers.
type MaintainerHandler struct {
	reportService *services.ReportService
}

func NewMaintainerHandler(reportService *services.ReportService) *MaintainerHandler {
	return &MaintainerHandler{reportService: reportService}
}

func (h *MaintainerHandler) UpdateStatus(c *fiber.Ctx) error {
	maintainer := middleware.CurrentUser(c)
	if maintainer == nil {
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

	report, err := h.reportService.MaintainerUpdateStatus(maintainer, reportID, req.Status)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(dto.NewReportResponse(report))
}

func (h *MaintainerHandler) ListAssigned(c *fiber.Ctx) error {
	maintainer := middleware.CurrentUser(c)
	if maintainer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	reports, err := h.reportService.ListAssigned("external_user", maintainer.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}
	return c.JSON(dto.NewReportListResponse(reports))
}
