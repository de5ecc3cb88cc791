package integrity

import (
	"errors"

	"esign-backend/apperrors"
	"esign-backend/constants"
	integrityModel "esign-backend/models/integrity"
	signatureModel "esign-backend/models/signature"
	"esign-backend/services/audit"
	integrityTypes "esign-backend/types/integrity"
	"esign-backend/utils"

	"gorm.io/gorm"
)

// Service maintains the registry of known document hashes and answers
// integrity queries against it.
type Service struct {
	DB    *gorm.DB
	Audit *audit.Service
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, Audit: audit.NewService(db)}
}

// Register records a hash as a known original or signed document. Registering
// the same hash twice is a no-op.
func (s *Service) Register(tx *gorm.DB, hash, kind, ownerID string) error {
	if !utils.IsHexDigest(hash, 32) {
		return apperrors.Validation("hash must be a 64-character hexadecimal string")
	}

	var existing integrityModel.IntegrityRecord
	err := tx.Where("hash = ?", hash).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Storage("failed to look up integrity record", err)
	}

	record := integrityModel.IntegrityRecord{
		Hash:         hash,
		DocumentKind: kind,
		OwnerID:      ownerID,
	}
	if err := tx.Create(&record).Error; err != nil {
		return apperrors.Storage("failed to create integrity record", err)
	}
	return nil
}

// Verify classifies a candidate hash. Malformed input is a validation error,
// not a "not found". Every check leaves an audit entry.
func (s *Service) Verify(hash string) (*integrityTypes.VerifyResponse, error) {
	if !utils.IsHexDigest(hash, 32) {
		return nil, apperrors.Validation("file_hash must be a 64-character hexadecimal string")
	}

	var record integrityModel.IntegrityRecord
	err := s.DB.Where("hash = ?", hash).First(&record).Error

	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage("failed to look up integrity record", err)
	}

	resp := &integrityTypes.VerifyResponse{
		Valid:         found,
		FoundInSystem: found,
	}

	requestID := ""
	details := signatureModel.JSONMap{"hash": hash, "found": found}

	switch {
	case found && record.DocumentKind == constants.DocumentKindOriginal:
		resp.Message = "Document is valid - hash matches an original contract template"
		details["document_kind"] = record.DocumentKind
		details["owner_id"] = record.OwnerID
	case found && record.DocumentKind == constants.DocumentKindSigned:
		resp.Message = "Document is valid - hash matches a signed contract"
		details["document_kind"] = record.DocumentKind
		details["owner_id"] = record.OwnerID
		requestID = record.OwnerID
	default:
		resp.Message = "Hash not found in the system"
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		_, appendErr := s.Audit.Append(tx, requestID, constants.ActionIntegrityChecked, details, "", "")
		return appendErr
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
