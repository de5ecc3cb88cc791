package constants

// Audit log actions. Every security-relevant operation writes exactly one of
// these before its state change is considered durable.
const (
	ActionRequestCreated   = "request_created"
	ActionOTPIssued        = "otp_issued"
	ActionOTPVerified      = "otp_verified"
	ActionOTPFailed        = "otp_failed"
	ActionRequestSigned    = "request_signed"
	ActionRequestRejected  = "request_rejected"
	ActionIntegrityChecked = "integrity_checked"
)

// OTP policy
const (
	OTPLength         = 6
	OTPMaxAttempts    = 5
	OTPTTLMinutes     = 10
	OTPResendCooldown = 60 // seconds between send-otp calls for one request
)

// Document kinds tracked by the integrity registry.
const (
	DocumentKindOriginal = "original"
	DocumentKindSigned   = "signed"
)
