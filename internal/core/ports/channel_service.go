package ports

import (
	"context"
	"time"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// CreateChannelInput carries all data needed to create a channel.
type CreateChannelInput struct {
	OwnerID     string
	Name        string
	Skill       string
	Description string
}

// VoteKickResult reports the tally after initiating or casting a vote.
type VoteKickResult struct {
	VoteID string
	// Votes is the number of distinct voters so far.
	Votes int
	// Required is the quorum threshold against the live member count.
	Required int
	// Passed is true when quorum was reached and the target was removed.
	Passed bool
}

// ChannelService defines use-case operations for the channel registry
// and its governance engine.
type ChannelService interface {
	CreateChannel(ctx context.Context, input CreateChannelInput) (*domain.Channel, error)
	ListChannels(ctx context.Context, skillFilter string) ([]*domain.Channel, error)
	// Join adds the user and returns the new member count.
	Join(ctx context.Context, channelID, userID string) (int, error)
	// Leave removes the user's membership, withdraws their open votes,
	// and expires votes they initiated or are targeted by. Returns the
	// new member count. Creators may leave; the channel persists.
	Leave(ctx context.Context, channelID, userID string) (int, error)
	PostMessage(ctx context.Context, channelID, senderID, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, channelID, requesterID string) ([]*domain.Message, error)
	// InitiateVoteKick opens a vote with the initiator's vote pre-counted.
	InitiateVoteKick(ctx context.Context, channelID, initiatorID, targetID, reason string) (*VoteKickResult, error)
	// CastVote adds a vote to the open vote-kick. Quorum is evaluated
	// against the member count at the moment this vote lands.
	CastVote(ctx context.Context, channelID, voterID, targetID string) (*VoteKickResult, error)
	// ExpireStaleVotes marks open votes older than olderThan as expired
	// and returns how many were swept.
	ExpireStaleVotes(ctx context.Context, olderThan time.Duration) (int64, error)
}
