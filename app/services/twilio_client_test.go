package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTwilioSignature(t *testing.T) {
	const authToken = "12345"
	const requestURL = "https://mycompany.com/myapp.php?foo=1&bar=2"
	params := map[string]string{
		"CallSid": "CA1234567890ABCDE",
		"Caller":  "+12349013030",
		"Digits":  "1234",
		"From":    "+12349013030",
		"To":      "+18005551212",
	}

	t.Run("MatchesDocumentedExample", func(t *testing.T) {
		// Known-answer vector from Twilio's webhook security docs.
		expected := "0/KCTR6DLpKmkAf8muzZqo1nDgQ="
		assert.Equal(t, expected, ComputeTwilioSignature(authToken, requestURL, params))
	})

	t.Run("ValidateAcceptsMatchingSignature", func(t *testing.T) {
		mock := NewMockTwilioService(authToken)
		signature := ComputeTwilioSignature(authToken, requestURL, params)
		assert.True(t, mock.ValidateSignature(signature, requestURL, params))
	})

	t.Run("ValidateRejectsTamperedParams", func(t *testing.T) {
		mock := NewMockTwilioService(authToken)
		signature := ComputeTwilioSignature(authToken, requestURL, params)

		tampered := map[string]string{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered["Digits"] = "9999"
		assert.False(t, mock.ValidateSignature(signature, requestURL, tampered))
	})

	t.Run("ValidateRejectsWrongToken", func(t *testing.T) {
		mock := NewMockTwilioService("other-token")
		signature := ComputeTwilioSignature(authToken, requestURL, params)
		assert.False(t, mock.ValidateSignature(signature, requestURL, params))
	})
}
