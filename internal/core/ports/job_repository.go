package ports

import (
	"context"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// ListJobsFilter carries query parameters for listing jobs. Zero values
// mean "no filter"; listing is role-independent by policy.
type ListJobsFilter struct {
	Status   string // optional: filter by job status
	ClientID string // optional: only jobs owned by this client
}

// JobRepository defines persistence for jobs, assignments, and disputes.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	// List returns jobs matching filter in creation order.
	List(ctx context.Context, filter ListJobsFilter) ([]*domain.Job, error)

	// UpdateStatus transitions the job from one status to another as a
	// compare-and-swap: the update applies only while the stored status
	// still equals from. A non-nil assignment is set together with the
	// status. Returns the updated job, domain.ErrJobNotFound when the
	// job does not exist, or domain.ErrInvalidTransition when the stored
	// status no longer equals from.
	UpdateStatus(ctx context.Context, jobID string, from, to domain.JobStatus, assignment *domain.Assignment) (*domain.Job, error)

	// CreateDispute opens a dispute. Returns domain.ErrDisputeAlreadyOpen
	// when the job already has an open dispute.
	CreateDispute(ctx context.Context, d *domain.Dispute) error
	// FindOpenDispute returns the job's open dispute or
	// domain.ErrNoOpenDispute.
	FindOpenDispute(ctx context.Context, jobID string) (*domain.Dispute, error)
	// ResolveDispute records the arbitrator's verdict and closes the
	// dispute. Arbitration is final; resolving twice fails with
	// domain.ErrNoOpenDispute.
	ResolveDispute(ctx context.Context, disputeID, arbitratorID string, resolution domain.DisputeResolution) (*domain.Dispute, error)
}
