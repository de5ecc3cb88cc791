package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"esign-backend/apperrors"
	"esign-backend/constants"
	otpModel "esign-backend/models/otp"
	"esign-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service generates, stores and verifies one-time codes. Codes are stored as
// salted SHA-256 hashes, never plaintext, and verification fails closed on
// expiry, exhausted attempts, consumption and supersession.
type Service struct {
	DB *gorm.DB
}

func NewOTPService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// GenerateCode returns a uniformly distributed 6-digit code from a secure
// random source.
func (s *Service) GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(salt, code string) string {
	sum := sha256.Sum256([]byte(salt + code))
	return fmt.Sprintf("%x", sum)
}

// IssueCode creates a fresh OTP record for the request and returns the raw
// code for delivery. Any prior record is superseded, which resets the attempt
// budget. The raw code is never persisted or logged.
func (s *Service) IssueCode(tx *gorm.DB, requestID string) (string, *otpModel.OTP, error) {
	err := tx.Model(&otpModel.OTP{}).
		Where("request_id = ? AND superseded = ?", requestID, false).
		Update("superseded", true).Error
	if err != nil {
		return "", nil, apperrors.Storage("failed to supersede prior OTP", err)
	}

	code, err := s.GenerateCode()
	if err != nil {
		return "", nil, apperrors.Storage("failed to generate OTP code", err)
	}

	salt, err := utils.GenerateSalt()
	if err != nil {
		return "", nil, apperrors.Storage("failed to generate OTP salt", err)
	}

	now := time.Now()
	record := &otpModel.OTP{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		CodeHash:     hashCode(salt, code),
		Salt:         salt,
		AttemptCount: 0,
		MaxAttempts:  constants.OTPMaxAttempts,
		Consumed:     false,
		Superseded:   false,
		IssuedAt:     now,
		ExpiresAt:    now.Add(constants.OTPTTLMinutes * time.Minute),
	}

	if err := tx.Create(record).Error; err != nil {
		return "", nil, apperrors.Storage("failed to create OTP record", err)
	}

	return code, record, nil
}

// Verify checks candidate against the live OTP record for the request. It
// never reports why verification failed. Each comparison costs one attempt;
// exceeding the budget permanently kills the record.
func (s *Service) Verify(tx *gorm.DB, requestID, candidate string) (bool, error) {
	record, err := s.liveRecord(tx, requestID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	// Fail closed before comparing anything.
	if record.Consumed || record.IsExpired() || record.AttemptsExhausted() {
		return false, nil
	}

	record.AttemptCount++
	if err := tx.Save(record).Error; err != nil {
		return false, apperrors.Storage("failed to update OTP attempt count", err)
	}

	candidateHash := hashCode(record.Salt, candidate)
	if subtle.ConstantTimeCompare([]byte(candidateHash), []byte(record.CodeHash)) != 1 {
		return false, nil
	}

	record.Consumed = true
	if err := tx.Save(record).Error; err != nil {
		return false, apperrors.Storage("failed to mark OTP as consumed", err)
	}

	return true, nil
}

// HasConsumedLive reports whether the most recent OTP record for the request
// was successfully verified and has not been superseded since. This is the
// server-side proof of identity the signing step requires.
func (s *Service) HasConsumedLive(tx *gorm.DB, requestID string) (bool, error) {
	record, err := s.liveRecord(tx, requestID)
	if err != nil {
		return false, err
	}
	return record != nil && record.Consumed, nil
}

func (s *Service) liveRecord(tx *gorm.DB, requestID string) (*otpModel.OTP, error) {
	var record otpModel.OTP
	err := tx.Where("request_id = ? AND superseded = ?", requestID, false).
		Order("issued_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Storage("failed to load OTP record", err)
	}
	return &record, nil
}
