package routes

import (
	"os"
	"path/filepath"

	auditController "esign-backend/controllers/audit"
	authController "esign-backend/controllers/auth"
	contractController "esign-backend/controllers/contract"
	dashboardController "esign-backend/controllers/dashboard"
	integrityController "esign-backend/controllers/integrity"
	signatureController "esign-backend/controllers/signature"
	"esign-backend/logger"
	"esign-backend/middleware"
	"esign-backend/services/notifier"
	signatureService "esign-backend/services/signature"
	"esign-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	storageDir := os.Getenv("STORAGE_DIR")
	if storageDir == "" {
		storageDir = "storage"
	}
	contractsDir := filepath.Join(storageDir, "contracts")
	signedDir := filepath.Join(storageDir, "signed")

	asyncLogger := logger.NewAsyncLogger(db)
	manager := signatureService.NewManager(db, notifier.NewService(), signedDir)

	auth := authController.NewAuthController()
	contracts := contractController.NewContractController(db, contractsDir)
	signatures := signatureController.NewSignatureController(manager)
	audits := auditController.NewAuditController(db)
	integrity := integrityController.NewIntegrityController(db)
	dashboard := dashboardController.NewDashboardController(db)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Electronic Contract Signature API",
		})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")

	// Persist every API request/response through the async logger.
	api.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		asyncLogger.Log(utils.CreateSanitizedLogEntry(c))
		return err
	})

	api.Post("/auth/admin/login", auth.AdminLogin)

	// Signer-facing flow, gated only by the single-use token / request id
	api.Get("/signature-requests/token/:token", signatures.ShowByToken)
	api.Post("/signature-requests/send-otp", signatures.SendOTP)
	api.Post("/signature-requests/verify-otp", signatures.VerifyOTP)
	api.Post("/signature-requests/sign", signatures.Sign)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	admin := api.Group("", middleware.RequireAdmin())

	admin.Get("/contracts", contracts.Index)
	admin.Post("/contracts", contracts.Store)
	admin.Get("/contracts/:id", contracts.Show)
	admin.Get("/contracts/:id/download", contracts.Download)

	admin.Get("/signature-requests", signatures.Index)
	admin.Post("/signature-requests", signatures.Store)
	admin.Get("/signature-requests/:id", signatures.Show)
	admin.Post("/signature-requests/:id/reject", signatures.Reject)

	admin.Get("/audit-logs", audits.Index)
	admin.Post("/verify-integrity", integrity.Verify)
	admin.Get("/dashboard/stats", dashboard.Stats)
}
