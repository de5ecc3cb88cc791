package integrity

import (
	"time"
)

// IntegrityRecord registers a known content hash so a file can later be
// proven to be the original template or the signed artifact of a request.
type IntegrityRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Hash         string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"hash"`
	DocumentKind string    `gorm:"type:varchar(20);not null" json:"document_kind"`
	OwnerID      string    `gorm:"type:varchar(36);not null" json:"owner_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (IntegrityRecord) TableName() string {
	return "integrity_records"
}
