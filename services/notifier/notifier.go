package notifier

import (
	"fmt"
	"time"

	"esign-backend/httpServices/email"
	"esign-backend/httpServices/sms"
	"esign-backend/logger"
)

// Notifier delivers OTP codes and signing confirmations to signers. Delivery
// is best-effort from the state machine's perspective: a failure is surfaced
// to the caller but never rolls back request state.
type Notifier interface {
	SendOTP(signerName, signerEmail, signerPhone, code string) error
	SendSignedConfirmation(signerName, signerEmail, signedHash string, signedAt time.Time) error
}

// Service is the production Notifier over SMTP and the SMS gateway.
type Service struct {
	Email *email.EmailService
	SMS   *sms.SMSService
}

func NewService() *Service {
	return &Service{
		Email: email.NewEmailService(),
		SMS:   sms.NewSMSService(),
	}
}

// SendOTP mails the verification code and, when a phone number is on file,
// texts it as well. Email is the primary channel; SMS failure alone is not an
// error.
func (s *Service) SendOTP(signerName, signerEmail, signerPhone, code string) error {
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: Arial, sans-serif; padding: 20px;">
		<h2>Verification Code</h2>
		<p>Dear %s,</p>
		<p>Your verification code to sign the contract is:</p>
		<h1 style="font-size: 36px; letter-spacing: 5px;">%s</h1>
		<p>This code expires in 10 minutes.</p>
		<p>If you did not request this code, please ignore this message.</p>
	</body>
	</html>`, signerName, code)

	emailErr := s.Email.Send(signerEmail, "Verification Code - Contract Signing", body)
	if emailErr != nil {
		logger.Error("Failed to send OTP email to "+signerEmail, emailErr)
	}

	if signerPhone != "" {
		message := fmt.Sprintf("Your verification code is: %s. Valid for 10 minutes.", code)
		if smsErr := s.SMS.Send(signerPhone, message); smsErr != nil {
			logger.Error("Failed to send OTP SMS to "+signerPhone, smsErr)
		}
	}

	return emailErr
}

// SendSignedConfirmation mails the signer a receipt carrying the artifact
// hash they can later use for integrity verification.
func (s *Service) SendSignedConfirmation(signerName, signerEmail, signedHash string, signedAt time.Time) error {
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: Arial, sans-serif; padding: 20px;">
		<h2>Contract Signed Successfully</h2>
		<p>Dear %s,</p>
		<p>Your contract has been signed successfully.</p>
		<p><strong>Signed at:</strong> %s</p>
		<p><strong>Document hash:</strong> %s</p>
		<p>Thank you for your trust.</p>
	</body>
	</html>`, signerName, signedAt.UTC().Format("2006-01-02 15:04:05 UTC"), signedHash)

	return s.Email.Send(signerEmail, "Contract Signed", body)
}
