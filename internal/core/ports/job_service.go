package ports

import (
	"context"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// CreateJobInput carries all data needed to post a job.
type CreateJobInput struct {
	ClientID       string
	Title          string
	Description    string
	BudgetUSDC     float64
	RequiredSkills []string
}

// JobService defines use-case operations for the job ledger and its
// arbitration engine. Every transition validates actor identity and the
// current status before mutating; violations make no partial change.
type JobService interface {
	CreateJob(ctx context.Context, input CreateJobInput) (*domain.Job, error)
	ListJobs(ctx context.Context, filter ListJobsFilter) ([]*domain.Job, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	// Assign lets the owning client pick a freelancer for an open job.
	Assign(ctx context.Context, jobID, freelancerID, actorID string) (*domain.Job, error)
	// Fund confirms escrow hold for an assigned job. Retrying while the
	// job is assigned is safe; funding an already funded job is a no-op
	// returning the current snapshot.
	Fund(ctx context.Context, jobID, actorID string) (*domain.Job, error)
	Start(ctx context.Context, jobID, actorID string) (*domain.Job, error)
	Submit(ctx context.Context, jobID, actorID string) (*domain.Job, error)
	// Accept completes the job and instructs escrow release to the
	// freelancer.
	Accept(ctx context.Context, jobID, actorID string) (*domain.Job, error)
	// RaiseDispute opens a dispute from funded, in_progress, or submitted.
	RaiseDispute(ctx context.Context, jobID, actorID, reason string) (*domain.Dispute, error)
	// Arbitrate records the verdict, instructs escrow accordingly, and
	// closes the job. Arbitration is final.
	Arbitrate(ctx context.Context, jobID, arbitratorID string, resolution domain.DisputeResolution) (*domain.Job, error)
}
