package signature

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateRequest is the admin payload for creating a signature request.
type CreateRequest struct {
	ContractID  string `json:"contract_id"`
	SignerName  string `json:"signer_name"`
	SignerEmail string `json:"signer_email"`
	SignerPhone string `json:"signer_phone,omitempty"`
}

// Validate returns an error message, or "" when the request is well formed.
func (r *CreateRequest) Validate() string {
	if strings.TrimSpace(r.ContractID) == "" {
		return "contract_id is required"
	}
	if strings.TrimSpace(r.SignerName) == "" {
		return "signer_name is required"
	}
	if !emailPattern.MatchString(r.SignerEmail) {
		return "signer_email must be a valid email address"
	}
	return ""
}

// SendOTPRequest asks for an OTP to be issued and delivered for a request.
type SendOTPRequest struct {
	RequestID string `json:"request_id"`
}

// VerifyOTPRequest carries a candidate code for verification.
type VerifyOTPRequest struct {
	RequestID string `json:"request_id"`
	OTP       string `json:"otp"`
}

// VerifyOTPResponse is the public verification outcome. The message never
// distinguishes wrong from expired from exhausted codes.
type VerifyOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignRequest is the signer's field submission.
type SignRequest struct {
	RequestID string            `json:"request_id"`
	FormData  map[string]string `json:"form_data"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
}

// RejectRequest carries the admin's rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// SignResponse reports a completed signature with the artifact hash the
// signer can keep for later integrity verification.
type SignResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	SignedHash string `json:"signed_hash"`
}
