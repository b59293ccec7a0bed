// Package email defines the outbound-mail boundary used by the credential
// lifecycle to deliver verification and password-reset codes. Wiring a
// real provider (the system this was ported from used the Gmail API via
// OAuth2) is out of scope; LogSender satisfies the interface for
// development and tests.
package email

import (
	"context"
	"log"
)

// Sender delivers a single templated message. Implementations must return
// a non-nil error on any failure so callers can roll back OTP state
// rather than leave a code the user never received.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

// LogSender writes outbound messages to the process log instead of
// delivering them; it never fails.
type LogSender struct{}

func (LogSender) SendVerificationCode(ctx context.Context, to, code string) error {
	log.Printf("[email] verification code for %s: %s", to, code)
	return nil
}

func (LogSender) SendPasswordResetCode(ctx context.Context, to, code string) error {
	log.Printf("[email] password reset code for %s: %s", to, code)
	return nil
}
