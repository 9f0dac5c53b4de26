package domain

import (
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobAssigned   JobStatus = "assigned"
	JobFunded     JobStatus = "funded"
	JobInProgress JobStatus = "in_progress"
	JobSubmitted  JobStatus = "submitted"
	JobCompleted  JobStatus = "completed"
	JobDisputed   JobStatus = "disputed"
	JobClosed     JobStatus = "closed"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[JobStatus][]JobStatus{
	JobOpen:       {JobAssigned},
	JobAssigned:   {JobFunded},
	JobFunded:     {JobInProgress, JobDisputed},
	JobInProgress: {JobSubmitted, JobDisputed},
	JobSubmitted:  {JobCompleted, JobDisputed},
	JobDisputed:   {JobClosed},
}

var ErrJobNotFound = errors.New("job not found")
var ErrForbidden = errors.New("access forbidden")
var ErrRoleMismatch = errors.New("role mismatch")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrNegativeBudget = errors.New("budget must be non-negative")
var ErrDisputeAlreadyOpen = errors.New("dispute already open")
var ErrNoOpenDispute = errors.New("no open dispute")
var ErrEscrowUnavailable = errors.New("escrow unavailable")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Assignment binds a job to its freelancer. At most one active
// assignment per job.
type Assignment struct {
	FreelancerID string    `json:"freelancer_id" bson:"freelancer_id"`
	AssignedAt   time.Time `json:"assigned_at" bson:"assigned_at"`
}

// Job is the core aggregate of the job ledger. Budget is denominated in
// USDC; the ledger only records amounts, it never moves funds.
type Job struct {
	ID             string      `json:"id" bson:"_id"`
	ClientID       string      `json:"client_id" bson:"client_id"`
	Title          string      `json:"title" bson:"title"`
	Description    string      `json:"description" bson:"description"`
	BudgetUSDC     float64     `json:"budget_usdc" bson:"budget_usdc"`
	RequiredSkills []string    `json:"required_skills" bson:"required_skills"`
	Status         JobStatus   `json:"status" bson:"status"`
	Assignment     *Assignment `json:"assignment,omitempty" bson:"assignment,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

// AssignedTo reports whether userID is the currently assigned freelancer.
func (j *Job) AssignedTo(userID string) bool {
	return j.Assignment != nil && j.Assignment.FreelancerID == userID
}

// DisputeResolution is the arbitrator's verdict.
type DisputeResolution string

const (
	ResolutionRefundClient      DisputeResolution = "refund_client"
	ResolutionReleaseFreelancer DisputeResolution = "release_freelancer"
)

// Valid reports whether r is a known resolution.
func (r DisputeResolution) Valid() bool {
	return r == ResolutionRefundClient || r == ResolutionReleaseFreelancer
}

// Dispute records a contested job. A job has at most one open dispute;
// arbitration is final.
type Dispute struct {
	ID           string            `json:"id" bson:"_id"`
	JobID        string            `json:"job_id" bson:"job_id"`
	RaisedBy     string            `json:"raised_by" bson:"raised_by"`
	Reason       string            `json:"reason" bson:"reason"`
	ArbitratorID string            `json:"arbitrator_id,omitempty" bson:"arbitrator_id,omitempty"`
	Resolution   DisputeResolution `json:"resolution,omitempty" bson:"resolution,omitempty"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty" bson:"resolved_at"`
}

// Open reports whether the dispute is still awaiting arbitration.
func (d *Dispute) Open() bool {
	return d.ResolvedAt == nil
}
