package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"esign-backend/apperrors"
	"esign-backend/constants"
	"esign-backend/logger"
	contractModel "esign-backend/models/contract"
	integrityService "esign-backend/services/integrity"
	"esign-backend/types"
	"esign-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractController handles contract template management.
type ContractController struct {
	DB           *gorm.DB
	Integrity    *integrityService.Service
	ContractsDir string
}

func NewContractController(db *gorm.DB, contractsDir string) *ContractController {
	return &ContractController{
		DB:           db,
		Integrity:    integrityService.NewService(db),
		ContractsDir: contractsDir,
	}
}

// Index lists all contract templates.
func (cc *ContractController) Index(c *fiber.Ctx) error {
	var contracts []contractModel.Contract
	if err := cc.DB.Order("created_at DESC").Find(&contracts).Error; err != nil {
		logger.Error("Failed to list contracts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Contracts retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    contracts,
	})
}

// Store uploads a new contract template. The file is persisted, its SHA-256
// digest computed and registered as a known original document, and the
// admin-declared field list stored alongside. A template is never modified
// after upload.
func (cc *ContractController) Store(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "name is required",
			Status:  fiber.StatusBadRequest,
		})
	}
	description := c.FormValue("description")

	var fields contractModel.FieldList
	if raw := c.FormValue("fields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
				Message: "fields must be a JSON array of {name, type}",
				Status:  fiber.StatusBadRequest,
			})
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "file is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := os.MkdirAll(cc.ContractsDir, os.ModePerm); err != nil {
		logger.Error("Failed to create contracts directory", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	contractID := uuid.NewString()
	filePath := filepath.Join(cc.ContractsDir, fmt.Sprintf("%s_%s", contractID, filepath.Base(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, filePath); err != nil {
		logger.Error("Failed to save contract file", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	fileHash, err := utils.SHA256File(filePath)
	if err != nil {
		logger.Error("Failed to hash contract file", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	contract := contractModel.Contract{
		ID:          contractID,
		Name:        name,
		Description: description,
		FilePath:    filePath,
		FileHash:    fileHash,
		Fields:      fields,
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return apperrors.Storage("failed to create contract", err)
		}
		return cc.Integrity.Register(tx, fileHash, constants.DocumentKindOriginal, contractID)
	})
	if err != nil {
		logger.Error("Failed to store contract", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ErrorResponse{
			Message: apperrors.PublicMessage(err),
			Status:  apperrors.HTTPStatus(err),
		})
	}

	logger.Success("Contract uploaded: " + contract.ID)
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Contract created successfully",
		Status:  fiber.StatusCreated,
		Data:    contract,
	})
}

// Show returns a single contract template.
func (cc *ContractController) Show(c *fiber.Ctx) error {
	contract, errResp := cc.find(c.Params("id"))
	if errResp != nil {
		return c.Status(errResp.Status).JSON(errResp)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Contract retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    contract,
	})
}

// Download streams the original template file.
func (cc *ContractController) Download(c *fiber.Ctx) error {
	contract, errResp := cc.find(c.Params("id"))
	if errResp != nil {
		return c.Status(errResp.Status).JSON(errResp)
	}

	if _, err := os.Stat(contract.FilePath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Message: "Contract file not found",
			Status:  fiber.StatusNotFound,
		})
	}

	return c.Download(contract.FilePath, filepath.Base(contract.FilePath))
}

func (cc *ContractController) find(id string) (*contractModel.Contract, *types.ErrorResponse) {
	var contract contractModel.Contract
	err := cc.DB.Where("id = ?", id).First(&contract).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &types.ErrorResponse{Message: "Contract not found", Status: fiber.StatusNotFound}
		}
		logger.Error("Failed to load contract", err)
		return nil, &types.ErrorResponse{Message: "Internal server error", Status: fiber.StatusInternalServerError}
	}
	return &contract, nil
}
