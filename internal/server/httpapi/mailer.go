package httpapi

import (
	"context"

	"github.com/dmitrijs2005/hoaboard/internal/logging"
)

// Mailer delivers one-time tokens to users. The raw token exists only in
// transit between the issuing service and this interface; the database
// holds its hash.
type Mailer interface {
	SendRecovery(ctx context.Context, email, token string) error
	SendValidation(ctx context.Context, email, token string) error
	SendInvitation(ctx context.Context, email, token string) error
}

// LogMailer is the development stand-in for an outgoing mail pipeline. It
// writes tokens to the debug log instead of sending mail.
type LogMailer struct {
	Logger logging.Logger
}

func (m *LogMailer) SendRecovery(ctx context.Context, email, token string) error {
	m.Logger.Debug(ctx, "recovery mail", "email", email, "token", token)
	return nil
}

func (m *LogMailer) SendValidation(ctx context.Context, email, token string) error {
	m.Logger.Debug(ctx, "validation mail", "email", email, "token", token)
	return nil
}

func (m *LogMailer) SendInvitation(ctx context.Context, email, token string) error {
	m.Logger.Debug(ctx, "invitation mail", "email", email, "token", token)
	return nil
}
