package auth

import (
	"crypto/subtle"
	"os"
	"time"

	"esign-backend/logger"
	"esign-backend/types"
	authTypes "esign-backend/types/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthController handles admin authentication.
type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

// AdminLogin checks the configured admin credentials and issues a bearer
// token. The comparison is constant time so the endpoint does not leak which
// half of the pair was wrong.
func (ac *AuthController) AdminLogin(c *fiber.Ctx) error {
	var req authTypes.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse login request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	adminUser := os.Getenv("ADMIN_USERNAME")
	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminUser == "" || adminPass == "" {
		logger.Error("Admin credentials are not configured", nil)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	userMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(adminUser))
	passMatch := subtle.ConstantTimeCompare([]byte(req.Password), []byte(adminPass))
	if userMatch != 1 || passMatch != 1 {
		logger.Warning("Failed admin login attempt for user: " + req.Username)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid credentials",
			Status:  fiber.StatusUnauthorized,
		})
	}

	token, err := issueAdminToken(req.Username)
	if err != nil {
		logger.Error("Failed to issue admin token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logger.Success("Admin logged in: " + req.Username)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   token,
	})
}

func issueAdminToken(username string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET is not set")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"username": username,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
