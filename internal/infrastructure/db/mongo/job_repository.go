package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

const (
	collectionJobs     = "jobs"
	collectionDisputes = "disputes"
)

type JobRepository struct {
	jobs     *mongo.Collection
	disputes *mongo.Collection
}

func NewJobRepository(db *mongo.Database) *JobRepository {
	return &JobRepository{
		jobs:     db.Collection(collectionJobs),
		disputes: db.Collection(collectionDisputes),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.jobs.InsertOne(ctx, job)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var job domain.Job
	if err := r.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return &job, nil
}

// List returns jobs matching filter in creation order.
func (r *JobRepository) List(ctx context.Context, filter ports.ListJobsFilter) ([]*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}

	cur, err := r.jobs.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Job
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions the job with a compare-and-swap on status:
// the filter matches only while the stored status equals from, so a
// concurrent transition loses cleanly instead of double-applying.
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID string, from, to domain.JobStatus, assignment *domain.Assignment) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	if assignment != nil {
		set["assignment"] = assignment
	}

	var job domain.Job
	err := r.jobs.FindOneAndUpdate(ctx,
		bson.M{"_id": jobID, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, err := r.FindByID(ctx, jobID); err != nil {
				return nil, err
			}
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("update job status: %w", err)
	}
	return &job, nil
}

// CreateDispute opens a dispute. The partial unique index on open
// disputes turns a concurrent second dispute for the job into
// domain.ErrDisputeAlreadyOpen.
func (r *JobRepository) CreateDispute(ctx context.Context, d *domain.Dispute) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.disputes.InsertOne(ctx, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDisputeAlreadyOpen
		}
		return fmt.Errorf("insert dispute: %w", err)
	}
	return nil
}

func (r *JobRepository) FindOpenDispute(ctx context.Context, jobID string) (*domain.Dispute, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Dispute
	filter := bson.M{"job_id": jobID, "resolved_at": nil}
	if err := r.disputes.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoOpenDispute
		}
		return nil, fmt.Errorf("find dispute: %w", err)
	}
	return &d, nil
}

// ResolveDispute records the verdict and stamps resolved_at. The filter
// matches only open disputes, so arbitration cannot apply twice.
func (r *JobRepository) ResolveDispute(ctx context.Context, disputeID, arbitratorID string, resolution domain.DisputeResolution) (*domain.Dispute, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Dispute
	err := r.disputes.FindOneAndUpdate(ctx,
		bson.M{"_id": disputeID, "resolved_at": nil},
		bson.M{"$set": bson.M{
			"arbitrator_id": arbitratorID,
			"resolution":    resolution,
			"resolved_at":   time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoOpenDispute
		}
		return nil, fmt.Errorf("resolve dispute: %w", err)
	}
	return &d, nil
}

// EnsureIndexes creates the indexes for jobs and disputes. The partial
// unique index enforces at most one open dispute per job.
func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		return err
	}

	_, err := r.disputes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "job_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.D{{Key: "resolved_at", Value: bson.M{"$type": "null"}}}),
	})
	return err
}
