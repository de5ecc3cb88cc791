package audit

import (
	"time"

	"esign-backend/apperrors"
	signatureModel "esign-backend/models/signature"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns the append-only audit trail. Entries are written inside the
// caller's transaction so the trail and the state change it records commit or
// roll back together. There is no update or delete on audit rows anywhere.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Append writes one audit entry. A failed append must abort the enclosing
// operation: callers treat the returned Storage error as fatal.
func (s *Service) Append(tx *gorm.DB, requestID, action string, details signatureModel.JSONMap, ip, userAgent string) (string, error) {
	entry := signatureModel.AuditLogEntry{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Action:    action,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}

	if err := tx.Create(&entry).Error; err != nil {
		return "", apperrors.Storage("failed to append audit log entry", err)
	}
	return entry.ID, nil
}

// ListByRequest returns the trail for one request, oldest first.
func (s *Service) ListByRequest(requestID string) ([]signatureModel.AuditLogEntry, error) {
	var entries []signatureModel.AuditLogEntry
	err := s.DB.Where("request_id = ?", requestID).
		Order("timestamp ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Storage("failed to list audit log entries", err)
	}
	return entries, nil
}

// List returns entries for the admin view, newest first. An empty requestID
// means no filter.
func (s *Service) List(requestID string, limit int) ([]signatureModel.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := s.DB.Order("timestamp DESC").Limit(limit)
	if requestID != "" {
		query = query.Where("request_id = ?", requestID)
	}

	var entries []signatureModel.AuditLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, apperrors.Storage("failed to list audit log entries", err)
	}
	return entries, nil
}
