package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	twilioclient "github.com/twilio/twilio-go/client"
)

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+919876543210", FormatPhone("9876543210"))
	assert.Equal(t, "+919876543210", FormatPhone("98765 43210"))
	assert.Equal(t, "+919876543210", FormatPhone("919876543210"))
	assert.Equal(t, "+919876543210", FormatPhone("+91 98765-43210"))
	assert.Equal(t, "12345", FormatPhone("12345"))
}

func TestOTPMessage(t *testing.T) {
	assert.Equal(t, "Your OTP for signup is: 123456. Valid for 5 minutes.", OTPMessage("signup", "123456"))
}

func TestTranslateTwilioError(t *testing.T) {
	err := translateTwilioError(&twilioclient.TwilioRestError{Code: 21211, Message: "bad"})
	assert.EqualError(t, err, "invalid phone number format")

	err = translateTwilioError(&twilioclient.TwilioRestError{Code: 20003})
	assert.Contains(t, err.Error(), "authentication failed")

	plain := errors.New("boom")
	assert.ErrorIs(t, translateTwilioError(plain), plain)
}

func TestNewTwilioSenderRequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender(TwilioConfig{AccountSID: "AC1"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLogSenderReportsUndelivered(t *testing.T) {
	err := NewLogSender(nil).Send(context.Background(), "9876543210", "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
