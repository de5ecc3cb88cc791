package signature

// RequestStatus is the state of a signature request. Transitions are
// monotonic: pending → otp_sent → signed, or pending/otp_sent → rejected.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusOTPSent  RequestStatus = "otp_sent"
	StatusSigned   RequestStatus = "signed"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) String() string {
	return string(s)
}

func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusOTPSent, StatusSigned, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this status.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusSigned || s == StatusRejected
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Re-entering otp_sent is allowed (OTP resend).
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusOTPSent || next == StatusRejected
	case StatusOTPSent:
		return next == StatusOTPSent || next == StatusSigned || next == StatusRejected
	default:
		return false
	}
}

// AllRequestStatuses returns every valid status.
func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{StatusPending, StatusOTPSent, StatusSigned, StatusRejected}
}
