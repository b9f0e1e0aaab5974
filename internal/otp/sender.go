package otp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a code to the holder of a mobile number out of band.
type Sender interface {
	Send(ctx context.Context, mobile, message string) error
}

type TwilioSender struct {
	client      *twilio.RestClient
	fromNumber  string
	countryCode string
}

func NewTwilioSender(accountSID, authToken, fromNumber, countryCode string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		client:      client,
		fromNumber:  fromNumber,
		countryCode: countryCode,
	}
}

func (t *TwilioSender) Send(ctx context.Context, mobile, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(t.e164(mobile))
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}

func (t *TwilioSender) e164(mobile string) string {
	if strings.HasPrefix(mobile, "+") {
		return mobile
	}
	return t.countryCode + mobile
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMS provider is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(ctx context.Context, mobile, message string) error {
	l.log.Info().Str("to", mobile).Str("body", message).Msg("sms not configured, message logged")
	return nil
}
