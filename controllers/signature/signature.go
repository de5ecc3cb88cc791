package signature

import (
	"esign-backend/apperrors"
	"esign-backend/logger"
	signatureService "esign-backend/services/signature"
	"esign-backend/types"
	signatureTypes "esign-backend/types/signature"

	"github.com/gofiber/fiber/v2"
)

// SignatureController handles signature request HTTP endpoints, both the
// admin surface and the public token-gated signer flow.
type SignatureController struct {
	Manager *signatureService.Manager
}

func NewSignatureController(manager *signatureService.Manager) *SignatureController {
	return &SignatureController{Manager: manager}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Signature operation failed", err)
	}
	return c.Status(status).JSON(types.ErrorResponse{
		Message: apperrors.PublicMessage(err),
		Status:  status,
	})
}

// Store creates a new signature request (admin).
func (sc *SignatureController) Store(c *fiber.Ctx) error {
	var req signatureTypes.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
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

	request, err := sc.Manager.Create(req)
	if err != nil {
		return errorJSON(c, err)
	}

	logger.Success("Signature request created: " + request.ID)
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Signature request created successfully",
		Status:  fiber.StatusCreated,
		Data:    request,
	})
}

// Index lists all signature requests (admin).
func (sc *SignatureController) Index(c *fiber.Ctx) error {
	requests, err := sc.Manager.List()
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Signature requests retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    requests,
	})
}

// Show returns one signature request by id (admin).
func (sc *SignatureController) Show(c *fiber.Ctx) error {
	request, err := sc.Manager.GetByID(c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Signature request retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    request,
	})
}

// ShowByToken is the public signer entry point. Whatever the reason the
// token cannot be served, the caller sees the same not-found response.
func (sc *SignatureController) ShowByToken(c *fiber.Ctx) error {
	request, err := sc.Manager.GetByToken(c.Params("token"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Signature request retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    request,
	})
}

// SendOTP issues and delivers a verification code for a request.
func (sc *SignatureController) SendOTP(c *fiber.Ctx) error {
	var req signatureTypes.SendOTPRequest
	if err := c.BodyParser(&req); err != nil || req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "request_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := sc.Manager.RequestOTP(req.RequestID, c.IP(), c.Get("User-Agent")); err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Verification code sent successfully",
		Status:  fiber.StatusOK,
	})
}

// VerifyOTP checks a candidate code. The failure message is deliberately
// generic: wrong, expired and exhausted codes are indistinguishable.
func (sc *SignatureController) VerifyOTP(c *fiber.Ctx) error {
	var req signatureTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil || req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "request_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	ok, err := sc.Manager.VerifyOTP(req.RequestID, req.OTP, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return errorJSON(c, err)
	}

	resp := signatureTypes.VerifyOTPResponse{Success: ok}
	if ok {
		resp.Message = "Code verified successfully"
	} else {
		resp.Message = "Invalid or expired code"
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: resp.Message,
		Status:  fiber.StatusOK,
		Data:    resp,
	})
}

// Sign accepts the signer's field submission and finalizes the signature.
func (sc *SignatureController) Sign(c *fiber.Ctx) error {
	var req signatureTypes.SignRequest
	if err := c.BodyParser(&req); err != nil || req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "request_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	ip := req.IPAddress
	if ip == "" {
		ip = c.IP()
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Get("User-Agent")
	}

	request, err := sc.Manager.Submit(req.RequestID, req.FormData, ip, userAgent)
	if err != nil {
		return errorJSON(c, err)
	}

	logger.Success("Contract signed for request: " + request.ID)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Contract signed successfully",
		Status:  fiber.StatusOK,
		Data: signatureTypes.SignResponse{
			Success:    true,
			Message:    "Contract signed successfully",
			SignedHash: request.SignedFileHash,
		},
	})
}

// Reject moves a request to its rejected terminal state (admin).
func (sc *SignatureController) Reject(c *fiber.Ctx) error {
	var req signatureTypes.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := sc.Manager.Reject(c.Params("id"), req.Reason); err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Signature request rejected",
		Status:  fiber.StatusOK,
	})
}
