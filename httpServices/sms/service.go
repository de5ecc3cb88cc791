package sms

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// SMSService sends text messages through the TextMeBot HTTP API.
type SMSService struct {
	APIKey string
	client *http.Client
}

func NewSMSService() *SMSService {
	return &SMSService{
		APIKey: os.Getenv("TEXTMEBOT_API_KEY"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send delivers a text message to the given phone number.
func (s *SMSService) Send(phone, message string) error {
	if s.APIKey == "" {
		return fmt.Errorf("TEXTMEBOT_API_KEY is not set")
	}

	endpoint := fmt.Sprintf("https://api.textmebot.com/send.php?recipient=%s&apikey=%s&text=%s",
		url.QueryEscape(phone), url.QueryEscape(s.APIKey), url.QueryEscape(message))

	resp, err := s.client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms api error: status=%d", resp.StatusCode)
	}

	return nil
}
