package sms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("sms service not configured")

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhone turns a local Indian number into E.164.
func FormatPhone(phone string) string {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(cleaned) == 10:
		return "+91" + cleaned
	case len(cleaned) > 10:
		return "+" + cleaned
	default:
		return cleaned
	}
}

// OTPMessage renders the one-time password text for the given purpose.
func OTPMessage(purpose, otp string) string {
	return fmt.Sprintf("Your OTP for %s is: %s. Valid for 5 minutes.", purpose, otp)
}

// TwilioConfig holds the account credentials and the sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

// NewTwilioSender creates a sender backed by the Twilio messaging API.
func NewTwilioSender(cfg TwilioConfig, logger *zap.Logger) (*TwilioSender, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: strings.TrimSpace(cfg.AccountSID),
		Password: strings.TrimSpace(cfg.AuthToken),
	})
	return &TwilioSender{client: client, from: strings.TrimSpace(cfg.From), logger: logger}, nil
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(FormatPhone(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return translateTwilioError(err)
	}

	fields := []zap.Field{zap.String("to", FormatPhone(to))}
	if resp.Sid != nil {
		fields = append(fields, zap.String("sid", *resp.Sid))
	}
	s.logger.Info("sms sent", fields...)
	return nil
}

func translateTwilioError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	switch restErr.Code {
	case 21211:
		return errors.New("invalid phone number format")
	case 21608:
		return errors.New("sms account not authorized to send to this number")
	case 21408:
		return errors.New("sms sender number not verified for this region")
	case 20003:
		return errors.New("sms authentication failed, check account sid and auth token")
	default:
		return fmt.Errorf("failed to send sms: %w", err)
	}
}

// LogSender writes messages to the log instead of delivering them.
// It is used when no SMS provider is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that only logs messages.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("sms not delivered, no provider configured",
		zap.String("to", FormatPhone(to)),
		zap.Int("length", len(body)),
	)
	return ErrNotConfigured
}
