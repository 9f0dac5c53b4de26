package domain

import (
	"errors"
	"time"
)

var ErrChannelNotFound = errors.New("channel not found")
var ErrAlreadyMember = errors.New("already a member")
var ErrNotMember = errors.New("not a member")
var ErrSelfTarget = errors.New("cannot target yourself")
var ErrVoteAlreadyOpen = errors.New("vote already open for this target")
var ErrNoOpenVote = errors.New("no open vote for this target")
var ErrDuplicateVote = errors.New("vote already cast")

// Channel groups users around a skill. The creator is the sole initial
// member; the creator may later leave and the channel persists, possibly
// with zero members.
type Channel struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Skill       string    `json:"skill" bson:"skill"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatorID   string    `json:"creator_id" bson:"creator_id"`
	Members     []string  `json:"members" bson:"members"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// IsMember reports whether userID currently belongs to the channel.
func (c *Channel) IsMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MemberCount returns the current number of members.
func (c *Channel) MemberCount() int {
	return len(c.Members)
}

// KickQuorum is the number of distinct voters required to pass a
// vote-kick: a strict majority of the current member count. It is
// always evaluated against the live membership, never a snapshot taken
// when the vote opened.
func KickQuorum(memberCount int) int {
	return memberCount/2 + 1
}

// Message is an immutable entry in a channel's append-only log. It is
// retained even after the sender leaves the channel.
type Message struct {
	ID        string    `json:"id" bson:"_id"`
	ChannelID string    `json:"channel_id" bson:"channel_id"`
	SenderID  string    `json:"sender_id" bson:"sender_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// VoteState is the resolution state of a VoteKick.
type VoteState string

const (
	VoteOpen    VoteState = "open"
	VotePassed  VoteState = "passed"
	VoteExpired VoteState = "expired"
)

// VoteKick is an open or resolved vote to remove a member. At most one
// open vote may exist per (channel, target) pair; the initiator's vote
// is pre-counted.
type VoteKick struct {
	ID          string    `json:"id" bson:"_id"`
	ChannelID   string    `json:"channel_id" bson:"channel_id"`
	TargetID    string    `json:"target_user_id" bson:"target_id"`
	InitiatorID string    `json:"initiator_id" bson:"initiator_id"`
	Reason      string    `json:"reason" bson:"reason"`
	Voters      []string  `json:"voters" bson:"voters"`
	State       VoteState `json:"state" bson:"state"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// HasVoted reports whether userID already cast a vote.
func (v *VoteKick) HasVoted(userID string) bool {
	for _, voter := range v.Voters {
		if voter == userID {
			return true
		}
	}
	return false
}
