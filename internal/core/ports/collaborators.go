package ports

import (
	"context"
	"time"
)

// EscrowGateway is the external collaborator that holds and releases
// funds tied to a job's budget. The job ledger only records
// confirmations; custody stays with the collaborator. All calls are
// bounded by a timeout and must be idempotent per job id so that a
// failed fund can be retried.
type EscrowGateway interface {
	// Hold asks the collaborator to lock amount for the job.
	Hold(ctx context.Context, jobID, clientID string, amount float64) error
	// Release pays the held amount out to the freelancer's wallet.
	Release(ctx context.Context, jobID, walletAddress string, amount float64) error
	// Refund returns the held amount to the client's wallet.
	Refund(ctx context.Context, jobID, walletAddress string, amount float64) error
}

// Email is an outbound message handed to the mail pipeline.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single email synchronously.
type Mailer interface {
	Send(ctx context.Context, mail Email) error
}

// MailQueue decouples email delivery from the request path. Enqueue
// never blocks the caller beyond queue capacity.
type MailQueue interface {
	Enqueue(mail Email)
}

// VerificationTokenStore persists short-lived email verification
// tokens. Tokens are single use: Consume returns the bound user id and
// invalidates the token atomically.
type VerificationTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns domain.ErrTokenInvalid for unknown or expired tokens.
	Consume(ctx context.Context, token string) (string, error)
}
