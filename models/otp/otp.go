package otp

import (
	"time"
)

// OTP is one issued verification code for a signature request. Only the
// salted hash of the code is stored. A request has at most one live record:
// a new issue marks the prior record superseded and starts attempts from
// zero.
type OTP struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID string `gorm:"type:varchar(36);not null;index" json:"request_id"`

	CodeHash string `gorm:"type:varchar(64);not null" json:"-"`
	Salt     string `gorm:"type:varchar(32);not null" json:"-"`

	AttemptCount int  `gorm:"default:0" json:"attempt_count"`
	MaxAttempts  int  `gorm:"default:5" json:"max_attempts"`
	Consumed     bool `gorm:"default:false" json:"consumed"`
	Superseded   bool `gorm:"default:false" json:"superseded"`

	IssuedAt  time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OTP) TableName() string {
	return "otps"
}

// IsExpired checks if the OTP has passed its expiry.
func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// AttemptsExhausted reports whether the brute-force limit has been reached.
// An exhausted record is permanently dead; only a fresh issue can retry.
func (o *OTP) AttemptsExhausted() bool {
	return o.AttemptCount >= o.MaxAttempts
}

// IsLive reports whether this record can still accept a verification attempt.
func (o *OTP) IsLive() bool {
	return !o.Superseded && !o.Consumed && !o.IsExpired() && !o.AttemptsExhausted()
}
