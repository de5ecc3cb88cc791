package signature

import (
	"time"
)

// AuditLogEntry is one immutable record of a security-relevant action. The
// table is append-only: nothing in this codebase updates or deletes rows, and
// any correction is a new entry.
type AuditLogEntry struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID string    `gorm:"type:varchar(36);index" json:"request_id"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Details   JSONMap   `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent string    `gorm:"type:text" json:"user_agent,omitempty"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
