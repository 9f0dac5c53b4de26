// Package mail ships the outbound mail implementations. LogMailer is
// the default for local and test environments; a real SMTP or provider
// implementation plugs into the same port.
package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

// LogMailer writes mails to the structured log instead of delivering
// them.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, mail ports.Email) error {
	m.log.Info().
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Str("body", mail.Body).
		Msg("mail delivered to log")
	return nil
}
