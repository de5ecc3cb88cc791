package audit

import (
	"strconv"

	"esign-backend/logger"
	auditService "esign-backend/services/audit"
	"esign-backend/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuditController exposes the read-only admin view over the audit trail.
type AuditController struct {
	Audit *auditService.Service
}

func NewAuditController(db *gorm.DB) *AuditController {
	return &AuditController{Audit: auditService.NewService(db)}
}

// Index lists audit entries, newest first, optionally filtered by request_id.
func (ac *AuditController) Index(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := ac.Audit.List(c.Query("request_id"), limit)
	if err != nil {
		logger.Error("Failed to list audit logs", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Audit logs retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    entries,
	})
}
