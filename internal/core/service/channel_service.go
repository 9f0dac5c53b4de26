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

// ChannelService implements the channel registry and the vote-to-kick
// governance engine. Every read-modify-write on one channel runs under
// that channel's stripe lock so concurrent vote casts and membership
// changes serialize per channel while distinct channels stay
// independent.
type ChannelService struct {
	repo  ports.ChannelRepository
	users ports.UserRepository
	locks *lock.Striped
	log   zerolog.Logger
}

func NewChannelService(repo ports.ChannelRepository, users ports.UserRepository, log zerolog.Logger) *ChannelService {
	return &ChannelService{
		repo:  repo,
		users: users,
		locks: lock.NewStriped(0),
		log:   log,
	}
}

// CreateChannel creates a channel with the owner as sole member. Any
// verified user may create; duplicate name+skill pairs are allowed,
// discovery is filter-based.
func (s *ChannelService) CreateChannel(ctx context.Context, input ports.CreateChannelInput) (*domain.Channel, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Skill) == "" {
		return nil, fmt.Errorf("%w: name and skill are required", domain.ErrValidation)
	}

	owner, err := s.users.FindByID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if !owner.Verified {
		return nil, fmt.Errorf("%w: account not verified", domain.ErrForbidden)
	}

	ch := &domain.Channel{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Skill:       input.Skill,
		Description: input.Description,
		CreatorID:   owner.ID,
		Members:     []string{owner.ID},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ch); err != nil {
		s.log.Error().Err(err).Msg("failed to create channel")
		return nil, err
	}

	s.log.Info().Str("channel_id", ch.ID).Str("skill", ch.Skill).Str("creator_id", owner.ID).Msg("channel created")
	return ch, nil
}

// ListChannels returns channels in creation order, optionally filtered
// by a case-insensitive substring match on skill.
func (s *ChannelService) ListChannels(ctx context.Context, skillFilter string) ([]*domain.Channel, error) {
	return s.repo.List(ctx, skillFilter)
}

// Join adds the user to the channel and returns the new member count.
func (s *ChannelService) Join(ctx context.Context, channelID, userID string) (int, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return 0, err
	}

	s.locks.Lock(channelID)
	defer s.locks.Unlock(channelID)

	if _, err := s.repo.FindByID(ctx, channelID); err != nil {
		return 0, err
	}
	count, err := s.repo.AddMember(ctx, channelID, userID)
	if err != nil {
		return 0, err
	}

	s.log.Info().Str("channel_id", channelID).Str("user_id", userID).Int("members", count).Msg("member joined")
	return count, nil
}

// Leave removes the user's membership. Open votes the leaver initiated
// or is targeted by are expired, and their cast votes are withdrawn
// from the remaining open votes. Creators may leave like anyone else;
// the channel persists even with zero members.
func (s *ChannelService) Leave(ctx context.Context, channelID, userID string) (int, error) {
	s.locks.Lock(channelID)
	defer s.locks.Unlock(channelID)

	if _, err := s.repo.FindByID(ctx, channelID); err != nil {
		return 0, err
	}
	count, err := s.repo.RemoveMember(ctx, channelID, userID)
	if err != nil {
		return 0, err
	}

	if n, err := s.repo.ExpireVotesInvolving(ctx, channelID, userID); err != nil {
		s.log.Warn().Err(err).Str("channel_id", channelID).Msg("failed to expire votes on leave")
	} else if n > 0 {
		s.log.Info().Str("channel_id", channelID).Int64("expired", n).Msg("open votes expired on leave")
	}
	if err := s.repo.RemoveVoter(ctx, channelID, userID); err != nil {
		s.log.Warn().Err(err).Str("channel_id", channelID).Msg("failed to withdraw votes on leave")
	}

	s.log.Info().Str("channel_id", channelID).Str("user_id", userID).Int("members", count).Msg("member left")
	return count, nil
}

// PostMessage appends a message to the channel's log. Only current
// members may post.
func (s *ChannelService) PostMessage(ctx context.Context, channelID, senderID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}

	ch, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsMember(senderID) {
		return nil, domain.ErrNotMember
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesPostedTotal.Inc()
	return msg, nil
}

// ListMessages returns the channel's messages in insertion order.
// Only current members may read.
func (s *ChannelService) ListMessages(ctx context.Context, channelID, requesterID string) ([]*domain.Message, error) {
	ch, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsMember(requesterID) {
		return nil, domain.ErrNotMember
	}
	return s.repo.ListMessages(ctx, channelID)
}

// InitiateVoteKick opens a vote against a member with the initiator's
// vote pre-counted. At most one open vote per (channel, target).
func (s *ChannelService) InitiateVoteKick(ctx context.Context, channelID, initiatorID, targetID, reason string) (*ports.VoteKickResult, error) {
	if initiatorID == targetID {
		return nil, domain.ErrSelfTarget
	}

	s.locks.Lock(channelID)
	defer s.locks.Unlock(channelID)

	ch, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsMember(initiatorID) || !ch.IsMember(targetID) {
		return nil, domain.ErrNotMember
	}
	if _, err := s.repo.FindOpenVote(ctx, channelID, targetID); err == nil {
		return nil, domain.ErrVoteAlreadyOpen
	}

	vote := &domain.VoteKick{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		TargetID:    targetID,
		InitiatorID: initiatorID,
		Reason:      reason,
		Voters:      []string{initiatorID},
		State:       domain.VoteOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateVote(ctx, vote); err != nil {
		return nil, err
	}

	metrics.VotesCastTotal.Inc()
	s.log.Info().Str("channel_id", channelID).Str("target_id", targetID).Str("initiator_id", initiatorID).Msg("vote-kick opened")

	return s.settleVote(ctx, ch, vote)
}

// CastVote adds the voter to the open vote's tally. The quorum
// threshold, floor(members/2)+1, is computed from the member count at
// the moment this vote lands: a channel that shrank since the vote
// opened reaches quorum sooner.
func (s *ChannelService) CastVote(ctx context.Context, channelID, voterID, targetID string) (*ports.VoteKickResult, error) {
	s.locks.Lock(channelID)
	defer s.locks.Unlock(channelID)

	ch, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsMember(voterID) {
		return nil, domain.ErrNotMember
	}

	vote, err := s.repo.FindOpenVote(ctx, channelID, targetID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.AddVoter(ctx, vote.ID, voterID)
	if err != nil {
		return nil, err
	}

	metrics.VotesCastTotal.Inc()
	return s.settleVote(ctx, ch, updated)
}

// settleVote evaluates quorum and, when reached, removes the target and
// resolves the vote. Runs under the channel's stripe lock.
func (s *ChannelService) settleVote(ctx context.Context, ch *domain.Channel, vote *domain.VoteKick) (*ports.VoteKickResult, error) {
	required := domain.KickQuorum(ch.MemberCount())
	result := &ports.VoteKickResult{
		VoteID:   vote.ID,
		Votes:    len(vote.Voters),
		Required: required,
	}
	if result.Votes < required {
		return result, nil
	}

	if _, err := s.repo.RemoveMember(ctx, ch.ID, vote.TargetID); err != nil {
		return nil, fmt.Errorf("kick target: %w", err)
	}
	if err := s.repo.ResolveVote(ctx, vote.ID, domain.VotePassed); err != nil {
		return nil, fmt.Errorf("resolve vote: %w", err)
	}

	result.Passed = true
	metrics.VoteKicksPassedTotal.Inc()
	s.log.Info().
		Str("channel_id", ch.ID).
		Str("target_id", vote.TargetID).
		Int("votes", result.Votes).
		Int("required", required).
		Msg("vote-kick passed, member removed")

	return result, nil
}

// ExpireStaleVotes marks open votes older than olderThan as expired.
// A new vote may then be opened against the same target.
func (s *ChannelService) ExpireStaleVotes(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := s.repo.ExpireVotesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Time("cutoff", cutoff).Msg("stale votes expired")
	}
	return n, nil
}
