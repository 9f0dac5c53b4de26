package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

const (
	collectionChannels  = "channels"
	collectionMessages  = "messages"
	collectionVoteKicks = "vote_kicks"
)

type ChannelRepository struct {
	channels *mongo.Collection
	messages *mongo.Collection
	votes    *mongo.Collection
}

func NewChannelRepository(db *mongo.Database) *ChannelRepository {
	return &ChannelRepository{
		channels: db.Collection(collectionChannels),
		messages: db.Collection(collectionMessages),
		votes:    db.Collection(collectionVoteKicks),
	}
}

func (r *ChannelRepository) Create(ctx context.Context, ch *domain.Channel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.channels.InsertOne(ctx, ch)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *ChannelRepository) FindByID(ctx context.Context, id string) (*domain.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ch domain.Channel
	if err := r.channels.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, fmt.Errorf("find channel: %w", err)
	}
	return &ch, nil
}

// List returns channels in creation order, optionally filtered by a
// case-insensitive substring match on skill.
func (r *ChannelRepository) List(ctx context.Context, skillFilter string) ([]*domain.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if skillFilter != "" {
		// QuoteMeta keeps the filter a literal substring match.
		filter["skill"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(skillFilter), Options: "i"}}
	}

	cur, err := r.channels.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Channel
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return out, nil
}

// AddMember inserts the membership only while the user is absent from
// the member array, so a duplicate join is detected rather than
// silently absorbed.
func (r *ChannelRepository) AddMember(ctx context.Context, channelID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ch domain.Channel
	err := r.channels.FindOneAndUpdate(ctx,
		bson.M{"_id": channelID, "members": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"members": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, err := r.FindByID(ctx, channelID); err != nil {
				return 0, err
			}
			return 0, domain.ErrAlreadyMember
		}
		return 0, fmt.Errorf("add member: %w", err)
	}
	return ch.MemberCount(), nil
}

// RemoveMember deletes the membership only while the user is present.
func (r *ChannelRepository) RemoveMember(ctx context.Context, channelID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ch domain.Channel
	err := r.channels.FindOneAndUpdate(ctx,
		bson.M{"_id": channelID, "members": userID},
		bson.M{"$pull": bson.M{"members": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, err := r.FindByID(ctx, channelID); err != nil {
				return 0, err
			}
			return 0, domain.ErrNotMember
		}
		return 0, fmt.Errorf("remove member: %w", err)
	}
	return ch.MemberCount(), nil
}

func (r *ChannelRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns the channel's messages in insertion order.
func (r *ChannelRepository) ListMessages(ctx context.Context, channelID string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.messages.Find(ctx,
		bson.M{"channel_id": channelID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}

// CreateVote opens a new vote-kick. The partial unique index on open
// votes turns a concurrent second vote for the same (channel, target)
// into domain.ErrVoteAlreadyOpen.
func (r *ChannelRepository) CreateVote(ctx context.Context, vote *domain.VoteKick) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.votes.InsertOne(ctx, vote)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrVoteAlreadyOpen
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (r *ChannelRepository) FindOpenVote(ctx context.Context, channelID, targetID string) (*domain.VoteKick, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var vote domain.VoteKick
	filter := bson.M{"channel_id": channelID, "target_id": targetID, "state": domain.VoteOpen}
	if err := r.votes.FindOne(ctx, filter).Decode(&vote); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoOpenVote
		}
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return &vote, nil
}

// AddVoter appends voterID to the open vote's tally and returns the
// updated vote.
func (r *ChannelRepository) AddVoter(ctx context.Context, voteID, voterID string) (*domain.VoteKick, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var vote domain.VoteKick
	err := r.votes.FindOneAndUpdate(ctx,
		bson.M{"_id": voteID, "state": domain.VoteOpen, "voters": bson.M{"$ne": voterID}},
		bson.M{"$push": bson.M{"voters": voterID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&vote)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			var existing domain.VoteKick
			lookupErr := r.votes.FindOne(ctx, bson.M{"_id": voteID, "state": domain.VoteOpen}).Decode(&existing)
			if lookupErr == nil && existing.HasVoted(voterID) {
				return nil, domain.ErrDuplicateVote
			}
			return nil, domain.ErrNoOpenVote
		}
		return nil, fmt.Errorf("add voter: %w", err)
	}
	return &vote, nil
}

func (r *ChannelRepository) ResolveVote(ctx context.Context, voteID string, state domain.VoteState) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.votes.UpdateOne(ctx,
		bson.M{"_id": voteID, "state": domain.VoteOpen},
		bson.M{"$set": bson.M{"state": state}},
	)
	if err != nil {
		return fmt.Errorf("resolve vote: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoOpenVote
	}
	return nil
}

// ExpireVotesInvolving marks open votes in the channel that userID
// initiated or is targeted by as expired.
func (r *ChannelRepository) ExpireVotesInvolving(ctx context.Context, channelID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"channel_id": channelID,
		"state":      domain.VoteOpen,
		"$or": []bson.M{
			{"initiator_id": userID},
			{"target_id": userID},
		},
	}
	res, err := r.votes.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"state": domain.VoteExpired}})
	if err != nil {
		return 0, fmt.Errorf("expire votes: %w", err)
	}
	return res.ModifiedCount, nil
}

// RemoveVoter withdraws userID's cast votes from all open votes in the
// channel.
func (r *ChannelRepository) RemoveVoter(ctx context.Context, channelID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.votes.UpdateMany(ctx,
		bson.M{"channel_id": channelID, "state": domain.VoteOpen},
		bson.M{"$pull": bson.M{"voters": userID}},
	)
	if err != nil {
		return fmt.Errorf("remove voter: %w", err)
	}
	return nil
}

// ExpireVotesBefore marks open votes created before cutoff as expired.
func (r *ChannelRepository) ExpireVotesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.votes.UpdateMany(ctx,
		bson.M{"state": domain.VoteOpen, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"state": domain.VoteExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("expire votes: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates the indexes for channels, messages, and votes.
// The partial unique index enforces at most one open vote per
// (channel, target) pair.
func (r *ChannelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.channels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "skill", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		return err
	}

	if _, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return err
	}

	_, err := r.votes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "target_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.D{{Key: "state", Value: string(domain.VoteOpen)}}),
	})
	return err
}

