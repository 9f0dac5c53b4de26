package ports

import (
	"context"
	"time"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// ChannelRepository defines persistence for channels, memberships,
// messages, and vote-kicks. Membership mutations are conditional
// updates: they fail rather than silently no-op when the precondition
// does not hold.
type ChannelRepository interface {
	Create(ctx context.Context, ch *domain.Channel) error
	FindByID(ctx context.Context, id string) (*domain.Channel, error)
	// List returns channels in creation order, optionally filtered by a
	// case-insensitive substring match on skill.
	List(ctx context.Context, skillFilter string) ([]*domain.Channel, error)

	// AddMember inserts the membership and returns the new member count.
	// Returns domain.ErrAlreadyMember when the user already belongs.
	AddMember(ctx context.Context, channelID, userID string) (int, error)
	// RemoveMember deletes the membership and returns the new member
	// count. Returns domain.ErrNotMember when the user does not belong.
	RemoveMember(ctx context.Context, channelID, userID string) (int, error)

	AppendMessage(ctx context.Context, msg *domain.Message) error
	// ListMessages returns the channel's messages in insertion order.
	ListMessages(ctx context.Context, channelID string) ([]*domain.Message, error)

	// CreateVote opens a new vote-kick. Returns domain.ErrVoteAlreadyOpen
	// when an open vote already exists for the (channel, target) pair.
	CreateVote(ctx context.Context, vote *domain.VoteKick) error
	// FindOpenVote returns the open vote for (channel, target) or
	// domain.ErrNoOpenVote.
	FindOpenVote(ctx context.Context, channelID, targetID string) (*domain.VoteKick, error)
	// AddVoter appends voterID to the open vote's tally and returns the
	// updated vote. Returns domain.ErrDuplicateVote when the voter has
	// already voted.
	AddVoter(ctx context.Context, voteID, voterID string) (*domain.VoteKick, error)
	ResolveVote(ctx context.Context, voteID string, state domain.VoteState) error
	// ExpireVotesInvolving marks open votes in the channel that userID
	// initiated or is targeted by as expired; returns how many.
	ExpireVotesInvolving(ctx context.Context, channelID, userID string) (int64, error)
	// RemoveVoter withdraws userID's cast votes from all open votes in
	// the channel.
	RemoveVoter(ctx context.Context, channelID, userID string) error
	// ExpireVotesBefore marks open votes created before cutoff as
	// expired; returns how many.
	ExpireVotesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
