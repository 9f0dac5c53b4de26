package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

type stubChannelService struct {
	castFn     func(ctx context.Context, channelID, voterID, targetID string) (*ports.VoteKickResult, error)
	initiateFn func(ctx context.Context, channelID, initiatorID, targetID, reason string) (*ports.VoteKickResult, error)
	joinFn     func(ctx context.Context, channelID, userID string) (int, error)
}

func (s *stubChannelService) CreateChannel(context.Context, ports.CreateChannelInput) (*domain.Channel, error) {
	return nil, nil
}

func (s *stubChannelService) ListChannels(context.Context, string) ([]*domain.Channel, error) {
	return nil, nil
}

func (s *stubChannelService) Join(ctx context.Context, channelID, userID string) (int, error) {
	return s.joinFn(ctx, channelID, userID)
}

func (s *stubChannelService) Leave(context.Context, string, string) (int, error) { return 0, nil }

func (s *stubChannelService) PostMessage(context.Context, string, string, string) (*domain.Message, error) {
	return nil, nil
}

func (s *stubChannelService) ListMessages(context.Context, string, string) ([]*domain.Message, error) {
	return nil, nil
}

func (s *stubChannelService) InitiateVoteKick(ctx context.Context, channelID, initiatorID, targetID, reason string) (*ports.VoteKickResult, error) {
	return s.initiateFn(ctx, channelID, initiatorID, targetID, reason)
}

func (s *stubChannelService) CastVote(ctx context.Context, channelID, voterID, targetID string) (*ports.VoteKickResult, error) {
	return s.castFn(ctx, channelID, voterID, targetID)
}

func (s *stubChannelService) ExpireStaleVotes(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func TestChannelHandler_VoteKick_OpensVoteWhenNoneRunning(t *testing.T) {
	initiated := false
	stub := &stubChannelService{
		castFn: func(context.Context, string, string, string) (*ports.VoteKickResult, error) {
			return nil, domain.ErrNoOpenVote
		},
		initiateFn: func(_ context.Context, channelID, initiatorID, targetID, reason string) (*ports.VoteKickResult, error) {
			initiated = true
			if channelID != "ch1" || initiatorID != "u1" || targetID != "u2" || reason != "spam" {
				t.Fatalf("unexpected args: %s %s %s %s", channelID, initiatorID, targetID, reason)
			}
			return &ports.VoteKickResult{VoteID: "v1", Votes: 1, Required: 3}, nil
		},
	}
	h := NewChannelHandler(stub)

	_, c, rec := newTestContext(t, http.MethodPost, "/api/channels/ch1/vote-kick",
		`{"target_user_id":"u2","reason":"spam"}`)
	c.SetParamNames("id")
	c.SetParamValues("ch1")
	c.Set("user_id", "u1")
	c.Set("role", "freelancer")

	renderError(h.VoteKick(c), c)

	if !initiated {
		t.Fatalf("expected fallback to initiate")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["votes"] != float64(1) || resp["required"] != float64(3) || resp["passed"] != false {
		t.Fatalf("unexpected tally: %+v", resp)
	}
}

func TestChannelHandler_VoteKick_CastsOnRunningVote(t *testing.T) {
	stub := &stubChannelService{
		castFn: func(context.Context, string, string, string) (*ports.VoteKickResult, error) {
			return &ports.VoteKickResult{VoteID: "v1", Votes: 3, Required: 3, Passed: true}, nil
		},
		initiateFn: func(context.Context, string, string, string, string) (*ports.VoteKickResult, error) {
			t.Fatalf("should not initiate when a vote is running")
			return nil, nil
		},
	}
	h := NewChannelHandler(stub)

	_, c, rec := newTestContext(t, http.MethodPost, "/api/channels/ch1/vote-kick",
		`{"target_user_id":"u2"}`)
	c.SetParamNames("id")
	c.SetParamValues("ch1")
	c.Set("user_id", "u3")
	c.Set("role", "freelancer")

	renderError(h.VoteKick(c), c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["passed"] != true {
		t.Fatalf("expected passed=true: %+v", resp)
	}
}

func TestChannelHandler_Join_ConflictOnDuplicate(t *testing.T) {
	stub := &stubChannelService{
		joinFn: func(context.Context, string, string) (int, error) {
			return 0, domain.ErrAlreadyMember
		},
	}
	h := NewChannelHandler(stub)

	_, c, rec := newTestContext(t, http.MethodPost, "/api/channels/ch1/join", "")
	c.SetParamNames("id")
	c.SetParamValues("ch1")
	c.Set("user_id", "u1")
	c.Set("role", "client")

	renderError(h.Join(c), c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
