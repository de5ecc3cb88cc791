package dashboard

import (
	"esign-backend/logger"
	contractModel "esign-backend/models/contract"
	signatureModel "esign-backend/models/signature"
	"esign-backend/types"
	dashboardTypes "esign-backend/types/dashboard"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// DashboardController serves read-only aggregate counts for the admin view.
type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// Stats returns the dashboard projection over contracts and requests.
func (dc *DashboardController) Stats(c *fiber.Ctx) error {
	var stats dashboardTypes.Stats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalContracts, dc.DB.Model(&contractModel.Contract{})},
		{&stats.TotalRequests, dc.DB.Model(&signatureModel.SignatureRequest{})},
		{&stats.PendingRequests, dc.DB.Model(&signatureModel.SignatureRequest{}).
			Where("status = ?", signatureModel.StatusPending)},
		{&stats.SignedRequests, dc.DB.Model(&signatureModel.SignatureRequest{}).
			Where("status = ?", signatureModel.StatusSigned)},
		{&stats.SignedToday, dc.DB.Model(&signatureModel.SignatureRequest{}).
			Where("status = ? AND signed_at >= ?", signatureModel.StatusSigned, now.BeginningOfDay())},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			logger.Error("Failed to compute dashboard stats", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
				Message: "Internal server error",
				Status:  fiber.StatusInternalServerError,
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Dashboard stats retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    stats,
	})
}
