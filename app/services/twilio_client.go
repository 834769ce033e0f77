// Package services provides external service integrations and technical concerns like messaging and storage
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/utils"
)

// TwilioService handles WhatsApp messaging through Twilio
type TwilioService interface {
	SendWhatsApp(ctx context.Context, to, body string) error
	ValidateSignature(signature, requestURL string, params map[string]string) bool
}

// TwilioServiceImpl implements TwilioService
type TwilioServiceImpl struct {
	config *config.TwilioConfig
	client *http.Client
}

// TwilioMessageResponse represents the message creation result from the Twilio API
type TwilioMessageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg *config.TwilioConfig) TwilioService {
	return &TwilioServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendWhatsApp sends a WhatsApp message through the Twilio messages API
func (s *TwilioServiceImpl) SendWhatsApp(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", "whatsapp:"+s.config.FromNumber)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("WhatsApp delivery rejected with status %d", resp.StatusCode)
	}

	var result TwilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode Twilio response: %w", err)
	}
	if result.ErrorCode != nil {
		msg := ""
		if result.ErrorMessage != nil {
			msg = *result.ErrorMessage
		}
		return fmt.Errorf("WhatsApp delivery failed: %s (%d)", msg, *result.ErrorCode)
	}
	return nil
}

// ValidateSignature verifies the X-Twilio-Signature header. Twilio signs the
// full request URL concatenated with every form parameter sorted by key, then
// HMAC-SHA1 with the auth token, base64 encoded.
func (s *TwilioServiceImpl) ValidateSignature(signature, requestURL string, params map[string]string) bool {
	expected := ComputeTwilioSignature(s.config.AuthToken, requestURL, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// ComputeTwilioSignature builds the signature Twilio attaches to webhook requests
func ComputeTwilioSignature(authToken, requestURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(requestURL)
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(builder.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// MockTwilioService implements TwilioService for testing
type MockTwilioService struct {
	AuthToken    string
	SentMessages []MockWhatsAppMessage
	SendErr      error
}

// MockWhatsAppMessage represents a mock WhatsApp message
type MockWhatsAppMessage struct {
	To     string
	Body   string
	SentAt time.Time
}

// NewMockTwilioService creates a new mock Twilio service
func NewMockTwilioService(authToken string) *MockTwilioService {
	return &MockTwilioService{
		AuthToken:    authToken,
		SentMessages: make([]MockWhatsAppMessage, 0),
	}
}

// SendWhatsApp records a mock WhatsApp message
func (m *MockTwilioService) SendWhatsApp(ctx context.Context, to, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SentMessages = append(m.SentMessages, MockWhatsAppMessage{
		To:     to,
		Body:   body,
		SentAt: utils.UTCNow(),
	})
	return nil
}

// ValidateSignature verifies signatures against the mock auth token
func (m *MockTwilioService) ValidateSignature(signature, requestURL string, params map[string]string) bool {
	expected := ComputeTwilioSignature(m.AuthToken, requestURL, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
