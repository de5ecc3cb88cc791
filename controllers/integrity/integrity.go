package integrity

import (
	"esign-backend/apperrors"
	"esign-backend/logger"
	integrityService "esign-backend/services/integrity"
	"esign-backend/types"
	integrityTypes "esign-backend/types/integrity"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// IntegrityController answers document integrity queries.
type IntegrityController struct {
	Integrity *integrityService.Service
}

func NewIntegrityController(db *gorm.DB) *IntegrityController {
	return &IntegrityController{Integrity: integrityService.NewService(db)}
}

// Verify classifies a candidate file hash against the registry. A malformed
// hash is a validation error, never a "not found".
func (ic *IntegrityController) Verify(c *fiber.Ctx) error {
	var req integrityTypes.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	result, err := ic.Integrity.Verify(req.FileHash)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("Integrity verification failed", err)
		}
		return c.Status(status).JSON(types.ErrorResponse{
			Message: apperrors.PublicMessage(err),
			Status:  status,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: result.Message,
		Status:  fiber.StatusOK,
		Data:    result,
	})
}
