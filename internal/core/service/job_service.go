package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Devansh-g1/CryptoGig/internal/api/metrics"
	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
	"github.com/Devansh-g1/CryptoGig/internal/pkg/lock"
)

// JobService implements the job ledger and the arbitration engine.
// Transitions validate the actor and the current status before
// mutating; the status update itself is a compare-and-swap in the
// repository, and every read-modify-write on one job runs under that
// job's stripe lock, so two concurrent transitions from the same source
// state cannot both succeed.
type JobService struct {
	repo   ports.JobRepository
	users  ports.UserRepository
	escrow ports.EscrowGateway
	locks  *lock.Striped
	log    zerolog.Logger
}

func NewJobService(repo ports.JobRepository, users ports.UserRepository, escrow ports.EscrowGateway, log zerolog.Logger) *JobService {
	return &JobService{
		repo:   repo,
		users:  users,
		escrow: escrow,
		locks:  lock.NewStriped(0),
		log:    log,
	}
}

// CreateJob posts a new job in status open. Only clients may post.
func (s *JobService) CreateJob(ctx context.Context, input ports.CreateJobInput) (*domain.Job, error) {
	actor, err := s.users.FindByID(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleClient {
		return nil, fmt.Errorf("%w: only clients may post jobs", domain.ErrForbidden)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.BudgetUSDC < 0 {
		return nil, domain.ErrNegativeBudget
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:             uuid.NewString(),
		ClientID:       actor.ID,
		Title:          input.Title,
		Description:    input.Description,
		BudgetUSDC:     input.BudgetUSDC,
		RequiredSkills: input.RequiredSkills,
		Status:         domain.JobOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.log.Error().Err(err).Msg("failed to create job")
		return nil, err
	}

	metrics.JobsCreatedTotal.Inc()
	s.log.Info().Str("job_id", job.ID).Str("client_id", actor.ID).Float64("budget_usdc", job.BudgetUSDC).Msg("job created")
	return job, nil
}

// ListJobs returns jobs matching filter. Listing visibility is
// role-independent; only mutations are gated.
func (s *JobService) ListJobs(ctx context.Context, filter ports.ListJobsFilter) ([]*domain.Job, error) {
	return s.repo.List(ctx, filter)
}

// GetJob returns the job snapshot.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.repo.FindByID(ctx, jobID)
}

// Assign lets the owning client assign a freelancer to an open job.
func (s *JobService) Assign(ctx context.Context, jobID, freelancerID, actorID string) (*domain.Job, error) {
	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, domain.ErrForbidden
	}
	if job.Status != domain.JobOpen {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}

	freelancer, err := s.users.FindByID(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if freelancer.Role != domain.RoleFreelancer {
		return nil, fmt.Errorf("%w: user %s is not a freelancer", domain.ErrRoleMismatch, freelancerID)
	}

	assignment := &domain.Assignment{
		FreelancerID: freelancer.ID,
		AssignedAt:   time.Now().UTC(),
	}
	updated, err := s.repo.UpdateStatus(ctx, jobID, domain.JobOpen, domain.JobAssigned, assignment)
	if err != nil {
		return nil, err
	}

	s.countTransition(domain.JobOpen, domain.JobAssigned)
	s.log.Info().Str("job_id", jobID).Str("freelancer_id", freelancer.ID).Msg("job assigned")
	return updated, nil
}

// Fund confirms funds are held in escrow and moves the job from
// assigned to funded. On collaborator failure the job stays assigned
// and the caller may retry; the escrow hold is keyed by job id, so the
// retry is idempotent. Funding an already funded job returns the
// current snapshot unchanged.
func (s *JobService) Fund(ctx context.Context, jobID, actorID string) (*domain.Job, error) {
	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, domain.ErrForbidden
	}
	if job.Status == domain.JobFunded {
		return job, nil
	}
	if job.Status != domain.JobAssigned {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}

	if err := s.escrow.Hold(ctx, job.ID, job.ClientID, job.BudgetUSDC); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("escrow hold failed, job stays assigned")
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, jobID, domain.JobAssigned, domain.JobFunded, nil)
	if err != nil {
		return nil, err
	}

	s.countTransition(domain.JobAssigned, domain.JobFunded)
	s.log.Info().Str("job_id", jobID).Float64("amount", job.BudgetUSDC).Msg("escrow funded")
	return updated, nil
}

// Start moves a funded job to in_progress. Assigned freelancer only.
func (s *JobService) Start(ctx context.Context, jobID, actorID string) (*domain.Job, error) {
	return s.freelancerTransition(ctx, jobID, actorID, domain.JobFunded, domain.JobInProgress)
}

// Submit moves an in-progress job to submitted. Assigned freelancer only.
func (s *JobService) Submit(ctx context.Context, jobID, actorID string) (*domain.Job, error) {
	return s.freelancerTransition(ctx, jobID, actorID, domain.JobInProgress, domain.JobSubmitted)
}

func (s *JobService) freelancerTransition(ctx context.Context, jobID, actorID string, from, to domain.JobStatus) (*domain.Job, error) {
	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.AssignedTo(actorID) {
		return nil, domain.ErrForbidden
	}
	if job.Status != from {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, jobID, from, to, nil)
	if err != nil {
		return nil, err
	}

	s.countTransition(from, to)
	s.log.Info().Str("job_id", jobID).Str("status", string(to)).Msg("job transitioned")
	return updated, nil
}

// Accept completes a submitted job and instructs escrow to release the
// held amount to the freelancer. On collaborator failure the job stays
// submitted and the caller may retry.
func (s *JobService) Accept(ctx context.Context, jobID, actorID string) (*domain.Job, error) {
	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, domain.ErrForbidden
	}
	if job.Status != domain.JobSubmitted {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}

	wallet := s.walletOf(ctx, job.Assignment.FreelancerID)
	if err := s.escrow.Release(ctx, job.ID, wallet, job.BudgetUSDC); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("escrow release failed, job stays submitted")
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, jobID, domain.JobSubmitted, domain.JobCompleted, nil)
	if err != nil {
		return nil, err
	}

	s.countTransition(domain.JobSubmitted, domain.JobCompleted)
	s.log.Info().Str("job_id", jobID).Msg("job completed, escrow released")
	return updated, nil
}

// RaiseDispute opens a dispute on a funded, in-progress, or submitted
// job. Either party to the assignment may raise; a job has at most one
// open dispute.
func (s *JobService) RaiseDispute(ctx context.Context, jobID, actorID, reason string) (*domain.Dispute, error) {
	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID && !job.AssignedTo(actorID) {
		return nil, domain.ErrForbidden
	}
	if !job.Status.CanTransitionTo(domain.JobDisputed) {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}

	dispute := &domain.Dispute{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		RaisedBy:  actorID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDispute(ctx, dispute); err != nil {
		return nil, err
	}
	if _, err := s.repo.UpdateStatus(ctx, jobID, job.Status, domain.JobDisputed, nil); err != nil {
		return nil, err
	}

	s.countTransition(job.Status, domain.JobDisputed)
	s.log.Info().Str("job_id", jobID).Str("raised_by", actorID).Msg("dispute raised")
	return dispute, nil
}

// Arbitrate records the verdict, instructs escrow accordingly, and
// closes the job. Only arbitrators may resolve; arbitration is final
// and a second call fails on the status check.
func (s *JobService) Arbitrate(ctx context.Context, jobID, arbitratorID string, resolution domain.DisputeResolution) (*domain.Job, error) {
	actor, err := s.users.FindByID(ctx, arbitratorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleArbitrator {
		return nil, fmt.Errorf("%w: only arbitrators may resolve disputes", domain.ErrForbidden)
	}
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: unknown resolution %q", domain.ErrValidation, resolution)
	}

	s.locks.Lock(jobID)
	defer s.locks.Unlock(jobID)

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobDisputed {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, job.Status)
	}
	dispute, err := s.repo.FindOpenDispute(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch resolution {
	case domain.ResolutionRefundClient:
		err = s.escrow.Refund(ctx, job.ID, s.walletOf(ctx, job.ClientID), job.BudgetUSDC)
	case domain.ResolutionReleaseFreelancer:
		err = s.escrow.Release(ctx, job.ID, s.walletOf(ctx, job.Assignment.FreelancerID), job.BudgetUSDC)
	}
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("escrow settlement failed, dispute stays open")
		return nil, err
	}

	if _, err := s.repo.ResolveDispute(ctx, dispute.ID, arbitratorID, resolution); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateStatus(ctx, jobID, domain.JobDisputed, domain.JobClosed, nil)
	if err != nil {
		return nil, err
	}

	s.countTransition(domain.JobDisputed, domain.JobClosed)
	s.log.Info().
		Str("job_id", jobID).
		Str("arbitrator_id", arbitratorID).
		Str("resolution", string(resolution)).
		Msg("dispute arbitrated, job closed")
	return updated, nil
}

// walletOf returns the user's linked wallet, or empty when none is
// linked; the escrow collaborator falls back to its own ledger entry.
func (s *JobService) walletOf(ctx context.Context, userID string) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.WalletAddress
}

func (s *JobService) countTransition(from, to domain.JobStatus) {
	metrics.JobTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}
