package signature

import (
	"time"

	contractModel "esign-backend/models/contract"
)

// SignatureRequest binds one signer to one contract template via a single-use
// token. The token is the only credential needed to reach the signing flow and
// is generated once at creation, never regenerated. Signer name and email are
// part of the identity being verified and never change after creation.
type SignatureRequest struct {
	ID         string                 `gorm:"type:varchar(36);primaryKey" json:"id"`
	ContractID string                 `gorm:"type:varchar(36);not null;index" json:"contract_id"`
	Contract   contractModel.Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`

	SignerName  string `gorm:"type:varchar(255);not null" json:"signer_name"`
	SignerEmail string `gorm:"type:varchar(255);not null" json:"signer_email"`
	SignerPhone string `gorm:"type:varchar(32)" json:"signer_phone,omitempty"`

	Token  string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"token"`
	Status RequestStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`

	SubmittedFields  StringMap  `gorm:"type:text" json:"submitted_fields,omitempty"`
	SigningIP        string     `gorm:"type:varchar(64)" json:"signing_ip,omitempty"`
	SigningUserAgent string     `gorm:"type:text" json:"signing_user_agent,omitempty"`
	SignedFilePath   string     `gorm:"type:text" json:"signed_file_path,omitempty"`
	SignedFileHash   string     `gorm:"type:varchar(64);index" json:"signed_file_hash,omitempty"`
	SignedAt         *time.Time `json:"signed_at,omitempty"`

	LastOTPSentAt *time.Time `json:"last_otp_sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SignatureRequest) TableName() string {
	return "signature_requests"
}
