package signature

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"esign-backend/apperrors"
	"esign-backend/constants"
	"esign-backend/logger"
	contractModel "esign-backend/models/contract"
	signatureModel "esign-backend/models/signature"
	"esign-backend/services/audit"
	integrityService "esign-backend/services/integrity"
	"esign-backend/services/notifier"
	otpService "esign-backend/services/otp"
	signatureTypes "esign-backend/types/signature"
	"esign-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Manager owns the signature request state machine. All mutating operations
// on one request serialize on a per-request lock, and every state transition
// commits together with its audit entry in a single transaction. The server,
// not the client, decides whether identity was verified.
type Manager struct {
	DB        *gorm.DB
	Audit     *audit.Service
	OTP       *otpService.Service
	Integrity *integrityService.Service
	Notifier  notifier.Notifier
	SignedDir string

	locks *utils.KeyedMutex
}

func NewManager(db *gorm.DB, n notifier.Notifier, signedDir string) *Manager {
	return &Manager{
		DB:        db,
		Audit:     audit.NewService(db),
		OTP:       otpService.NewOTPService(db),
		Integrity: integrityService.NewService(db),
		Notifier:  n,
		SignedDir: signedDir,
		locks:     utils.NewKeyedMutex(),
	}
}

// Create validates the contract reference, generates the single-use signing
// token and stores the request in its initial state.
func (m *Manager) Create(req signatureTypes.CreateRequest) (*signatureModel.SignatureRequest, error) {
	var contract contractModel.Contract
	err := m.DB.Where("id = ?", req.ContractID).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Contract not found")
		}
		return nil, apperrors.Storage("failed to load contract", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, apperrors.Storage("failed to generate signing token", err)
	}

	request := &signatureModel.SignatureRequest{
		ID:          uuid.NewString(),
		ContractID:  req.ContractID,
		SignerName:  req.SignerName,
		SignerEmail: req.SignerEmail,
		SignerPhone: req.SignerPhone,
		Token:       token,
		Status:      signatureModel.StatusPending,
	}

	err = m.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return apperrors.Storage("failed to create signature request", err)
		}
		_, appendErr := m.Audit.Append(tx, request.ID, constants.ActionRequestCreated, signatureModel.JSONMap{
			"contract_id":  req.ContractID,
			"signer_email": req.SignerEmail,
		}, "", "")
		return appendErr
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// List returns all requests for the admin view, newest first.
func (m *Manager) List() ([]signatureModel.SignatureRequest, error) {
	var requests []signatureModel.SignatureRequest
	err := m.DB.Preload("Contract").Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, apperrors.Storage("failed to list signature requests", err)
	}
	return requests, nil
}

// GetByID loads one request for the admin view.
func (m *Manager) GetByID(id string) (*signatureModel.SignatureRequest, error) {
	var request signatureModel.SignatureRequest
	err := m.DB.Preload("Contract").Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Signature request not found")
		}
		return nil, apperrors.Storage("failed to load signature request", err)
	}
	return &request, nil
}

// GetByToken is the unauthenticated signer entry point. The error is the same
// whatever the reason the token cannot be served.
func (m *Manager) GetByToken(token string) (*signatureModel.SignatureRequest, error) {
	var request signatureModel.SignatureRequest
	err := m.DB.Preload("Contract").Where("token = ?", token).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Signature request not found")
		}
		return nil, apperrors.Storage("failed to load signature request", err)
	}
	return &request, nil
}

// RequestOTP issues a fresh verification code for the request and hands it to
// the notifier. The transition to otp_sent happens once the code is generated;
// a delivery failure is reported to the caller but leaves the committed state
// untouched, so the caller may simply retry.
func (m *Manager) RequestOTP(requestID, ip, userAgent string) error {
	m.locks.Lock(requestID)
	defer m.locks.Unlock(requestID)

	request, err := m.loadForUpdate(requestID)
	if err != nil {
		return err
	}

	switch request.Status {
	case signatureModel.StatusPending, signatureModel.StatusOTPSent:
		// resend allowed, replaces the prior code
	case signatureModel.StatusSigned:
		return apperrors.Conflict("Request has already been signed")
	default:
		return apperrors.Precondition("Request has been rejected")
	}

	if request.LastOTPSentAt != nil {
		elapsed := time.Since(*request.LastOTPSentAt)
		if elapsed < constants.OTPResendCooldown*time.Second {
			return apperrors.RateLimit("Please wait before requesting another code")
		}
	}

	var rawCode string
	now := time.Now()
	err = m.DB.Transaction(func(tx *gorm.DB) error {
		code, record, issueErr := m.OTP.IssueCode(tx, requestID)
		if issueErr != nil {
			return issueErr
		}
		rawCode = code

		updates := map[string]interface{}{
			"status":           signatureModel.StatusOTPSent,
			"last_otp_sent_at": now,
		}
		if err := tx.Model(&signatureModel.SignatureRequest{}).Where("id = ?", requestID).Updates(updates).Error; err != nil {
			return apperrors.Storage("failed to update request status", err)
		}

		// The raw code must never reach the audit trail.
		_, appendErr := m.Audit.Append(tx, requestID, constants.ActionOTPIssued, signatureModel.JSONMap{
			"otp_id":     record.ID,
			"expires_at": record.ExpiresAt.UTC().Format(time.RFC3339),
			"email":      true,
			"sms":        request.SignerPhone != "",
		}, ip, userAgent)
		return appendErr
	})
	if err != nil {
		return err
	}

	if sendErr := m.Notifier.SendOTP(request.SignerName, request.SignerEmail, request.SignerPhone, rawCode); sendErr != nil {
		return apperrors.Delivery("Failed to deliver verification code", sendErr)
	}

	return nil
}

// VerifyOTP checks a candidate code. A wrong code is not an error: the result
// is false and an otp_failed entry is written. Request status is unchanged;
// the consumed OTP record is re-checked server-side at signing time.
func (m *Manager) VerifyOTP(requestID, code, ip, userAgent string) (bool, error) {
	m.locks.Lock(requestID)
	defer m.locks.Unlock(requestID)

	if _, err := m.loadForUpdate(requestID); err != nil {
		return false, err
	}

	var verified bool
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		ok, verifyErr := m.OTP.Verify(tx, requestID, code)
		if verifyErr != nil {
			return verifyErr
		}
		verified = ok

		action := constants.ActionOTPFailed
		if ok {
			action = constants.ActionOTPVerified
		}
		_, appendErr := m.Audit.Append(tx, requestID, action, signatureModel.JSONMap{
			"success": ok,
		}, ip, userAgent)
		return appendErr
	})
	if err != nil {
		return false, err
	}

	return verified, nil
}

// Submit finalizes the signature. Preconditions are re-checked under the
// per-request lock inside the transaction, so two concurrent submissions
// yield exactly one signed request and one conflict. The signature is
// write-once by design.
func (m *Manager) Submit(requestID string, fields map[string]string, ip, userAgent string) (*signatureModel.SignatureRequest, error) {
	m.locks.Lock(requestID)
	defer m.locks.Unlock(requestID)

	var request signatureModel.SignatureRequest
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Signature request not found")
			}
			return apperrors.Storage("failed to load signature request", err)
		}

		switch request.Status {
		case signatureModel.StatusSigned:
			return apperrors.Conflict("Request has already been signed")
		case signatureModel.StatusOTPSent:
			// proceed
		default:
			return apperrors.Precondition("Request is not ready for signing")
		}

		verified, err := m.OTP.HasConsumedLive(tx, requestID)
		if err != nil {
			return err
		}
		if !verified {
			return apperrors.Precondition("Identity has not been verified")
		}

		var contract contractModel.Contract
		if err := tx.Where("id = ?", request.ContractID).First(&contract).Error; err != nil {
			return apperrors.Storage("failed to load contract", err)
		}

		if err := validateFieldKeys(&contract, fields); err != nil {
			return err
		}

		signedAt := time.Now()
		artifactPath, artifactHash, err := m.writeSignedArtifact(&request, &contract, fields, ip, userAgent, signedAt)
		if err != nil {
			return err
		}

		request.Status = signatureModel.StatusSigned
		request.SubmittedFields = signatureModel.StringMap(fields)
		request.SigningIP = ip
		request.SigningUserAgent = userAgent
		request.SignedFilePath = artifactPath
		request.SignedFileHash = artifactHash
		request.SignedAt = &signedAt

		if err := tx.Save(&request).Error; err != nil {
			return apperrors.Storage("failed to update signature request", err)
		}

		if err := m.Integrity.Register(tx, artifactHash, constants.DocumentKindSigned, requestID); err != nil {
			return err
		}

		details := signatureModel.JSONMap{
			"signed_hash": artifactHash,
			"ip_address":  ip,
			"user_agent":  userAgent,
		}
		for name, value := range fields {
			details["field:"+name] = value
		}
		_, appendErr := m.Audit.Append(tx, requestID, constants.ActionRequestSigned, details, ip, userAgent)
		return appendErr
	})
	if err != nil {
		return nil, err
	}

	// Confirmation mail is best effort and must not hold the lock.
	go func(name, email, hash string, signedAt time.Time) {
		if sendErr := m.Notifier.SendSignedConfirmation(name, email, hash, signedAt); sendErr != nil {
			logger.Error("Failed to send signing confirmation to "+email, sendErr)
		}
	}(request.SignerName, request.SignerEmail, request.SignedFileHash, *request.SignedAt)

	return &request, nil
}

// Reject moves a live request to its rejected terminal state.
func (m *Manager) Reject(requestID, reason string) error {
	m.locks.Lock(requestID)
	defer m.locks.Unlock(requestID)

	return m.DB.Transaction(func(tx *gorm.DB) error {
		var request signatureModel.SignatureRequest
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Signature request not found")
			}
			return apperrors.Storage("failed to load signature request", err)
		}

		if !request.Status.CanTransitionTo(signatureModel.StatusRejected) {
			if request.Status == signatureModel.StatusSigned {
				return apperrors.Conflict("Request has already been signed")
			}
			return apperrors.Precondition("Request has already been rejected")
		}

		if err := tx.Model(&request).Update("status", signatureModel.StatusRejected).Error; err != nil {
			return apperrors.Storage("failed to update request status", err)
		}

		_, appendErr := m.Audit.Append(tx, requestID, constants.ActionRequestRejected, signatureModel.JSONMap{
			"reason": reason,
		}, "", "")
		return appendErr
	})
}

func (m *Manager) loadForUpdate(requestID string) (*signatureModel.SignatureRequest, error) {
	var request signatureModel.SignatureRequest
	err := m.DB.Where("id = ?", requestID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Signature request not found")
		}
		return nil, apperrors.Storage("failed to load signature request", err)
	}
	return &request, nil
}

// validateFieldKeys enforces that the submitted keys are exactly the
// template's field names, nothing more and nothing less.
func validateFieldKeys(contract *contractModel.Contract, fields map[string]string) error {
	expected := make(map[string]bool, len(contract.Fields))
	for _, f := range contract.Fields {
		expected[f.Name] = true
	}

	var missing, extra []string
	for name := range expected {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range fields {
		if !expected[name] {
			extra = append(extra, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected fields: "+strings.Join(extra, ", "))
	}
	return apperrors.Validation(fmt.Sprintf("Form data does not match contract fields (%s)", strings.Join(parts, "; ")))
}
