package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub channel repository
// ---------------------------------------------------------------------------

type stubChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*domain.Channel
	order    []string
	messages map[string][]*domain.Message
	votes    map[string]*domain.VoteKick // by vote id
}

func newStubChannelRepo() *stubChannelRepo {
	return &stubChannelRepo{
		channels: make(map[string]*domain.Channel),
		messages: make(map[string][]*domain.Message),
		votes:    make(map[string]*domain.VoteKick),
	}
}

func cloneChannel(c *domain.Channel) *domain.Channel {
	clone := *c
	clone.Members = append([]string(nil), c.Members...)
	return &clone
}

func cloneVote(v *domain.VoteKick) *domain.VoteKick {
	clone := *v
	clone.Voters = append([]string(nil), v.Voters...)
	return &clone
}

func (r *stubChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID] = cloneChannel(ch)
	r.order = append(r.order, ch.ID)
	return nil
}

func (r *stubChannelRepo) FindByID(_ context.Context, id string) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return cloneChannel(ch), nil
}

func (r *stubChannelRepo) List(_ context.Context, skillFilter string) ([]*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Channel
	for _, id := range r.order {
		ch := r.channels[id]
		if skillFilter != "" && !strings.Contains(strings.ToLower(ch.Skill), strings.ToLower(skillFilter)) {
			continue
		}
		out = append(out, cloneChannel(ch))
	}
	return out, nil
}

func (r *stubChannelRepo) AddMember(_ context.Context, channelID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelID]
	if !ok {
		return 0, domain.ErrChannelNotFound
	}
	if ch.IsMember(userID) {
		return 0, domain.ErrAlreadyMember
	}
	ch.Members = append(ch.Members, userID)
	return len(ch.Members), nil
}

func (r *stubChannelRepo) RemoveMember(_ context.Context, channelID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelID]
	if !ok {
		return 0, domain.ErrChannelNotFound
	}
	for i, m := range ch.Members {
		if m == userID {
			ch.Members = append(ch.Members[:i], ch.Members[i+1:]...)
			return len(ch.Members), nil
		}
	}
	return 0, domain.ErrNotMember
}

func (r *stubChannelRepo) AppendMessage(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *msg
	r.messages[msg.ChannelID] = append(r.messages[msg.ChannelID], &clone)
	return nil
}

func (r *stubChannelRepo) ListMessages(_ context.Context, channelID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[channelID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubChannelRepo) CreateVote(_ context.Context, vote *domain.VoteKick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.ChannelID == vote.ChannelID && v.TargetID == vote.TargetID && v.State == domain.VoteOpen {
			return domain.ErrVoteAlreadyOpen
		}
	}
	r.votes[vote.ID] = cloneVote(vote)
	return nil
}

func (r *stubChannelRepo) FindOpenVote(_ context.Context, channelID, targetID string) (*domain.VoteKick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.ChannelID == channelID && v.TargetID == targetID && v.State == domain.VoteOpen {
			return cloneVote(v), nil
		}
	}
	return nil, domain.ErrNoOpenVote
}

func (r *stubChannelRepo) AddVoter(_ context.Context, voteID, voterID string) (*domain.VoteKick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.votes[voteID]
	if !ok || v.State != domain.VoteOpen {
		return nil, domain.ErrNoOpenVote
	}
	if v.HasVoted(voterID) {
		return nil, domain.ErrDuplicateVote
	}
	v.Voters = append(v.Voters, voterID)
	return cloneVote(v), nil
}

func (r *stubChannelRepo) ResolveVote(_ context.Context, voteID string, state domain.VoteState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.votes[voteID]
	if !ok {
		return domain.ErrNoOpenVote
	}
	v.State = state
	return nil
}

func (r *stubChannelRepo) ExpireVotesInvolving(_ context.Context, channelID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.votes {
		if v.ChannelID == channelID && v.State == domain.VoteOpen && (v.InitiatorID == userID || v.TargetID == userID) {
			v.State = domain.VoteExpired
			n++
		}
	}
	return n, nil
}

func (r *stubChannelRepo) RemoveVoter(_ context.Context, channelID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.ChannelID != channelID || v.State != domain.VoteOpen {
			continue
		}
		for i, voter := range v.Voters {
			if voter == userID {
				v.Voters = append(v.Voters[:i], v.Voters[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *stubChannelRepo) ExpireVotesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.votes {
		if v.State == domain.VoteOpen && v.CreatedAt.Before(cutoff) {
			v.State = domain.VoteExpired
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// seedChannel creates a channel owned by the first member with everyone
// in members joined, seeding the user repo along the way.
func seedChannel(t *testing.T, svc *ChannelService, users *stubUserRepo, members ...string) string {
	t.Helper()
	for _, m := range members {
		users.seedUser(m, domain.RoleFreelancer)
	}
	ch, err := svc.CreateChannel(context.Background(), ports.CreateChannelInput{
		OwnerID: members[0],
		Name:    "General",
		Skill:   "Go",
	})
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	for _, m := range members[1:] {
		if _, err := svc.Join(context.Background(), ch.ID, m); err != nil {
			t.Fatalf("join %s: %v", m, err)
		}
	}
	return ch.ID
}

func newChannelFixture() (*ChannelService, *stubChannelRepo, *stubUserRepo) {
	repo := newStubChannelRepo()
	users := newStubUserRepo()
	return NewChannelService(repo, users, discardLogger), repo, users
}

// ---------------------------------------------------------------------------
// Channels & membership
// ---------------------------------------------------------------------------

func TestChannelService_Create_RequiresVerifiedUser(t *testing.T) {
	svc, _, users := newChannelFixture()
	unverified := users.seedUser("u1", domain.RoleClient)
	users.users[unverified.ID].Verified = false

	_, err := svc.CreateChannel(context.Background(), ports.CreateChannelInput{
		OwnerID: "u1", Name: "React Devs", Skill: "React",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unverified creator, got %v", err)
	}
}

func TestChannelService_Create_CreatorIsSoleMember(t *testing.T) {
	svc, _, users := newChannelFixture()
	users.seedUser("u1", domain.RoleClient)

	ch, err := svc.CreateChannel(context.Background(), ports.CreateChannelInput{
		OwnerID: "u1", Name: "React Devs", Skill: "React", Description: "react things",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if ch.MemberCount() != 1 || !ch.IsMember("u1") {
		t.Errorf("expected creator as sole member, got %v", ch.Members)
	}
	if ch.CreatorID != "u1" {
		t.Errorf("creator id not set: %s", ch.CreatorID)
	}
}

func TestChannelService_List_SkillFilterCaseInsensitive(t *testing.T) {
	svc, _, users := newChannelFixture()
	users.seedUser("u1", domain.RoleClient)

	for _, skill := range []string{"React", "Python", "ReactNative"} {
		if _, err := svc.CreateChannel(context.Background(), ports.CreateChannelInput{
			OwnerID: "u1", Name: skill + " channel", Skill: skill,
		}); err != nil {
			t.Fatalf("create %s: %v", skill, err)
		}
	}

	got, err := svc.ListChannels(context.Background(), "react")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 react channels, got %d", len(got))
	}
	// Creation order preserved.
	if got[0].Skill != "React" || got[1].Skill != "ReactNative" {
		t.Errorf("unexpected order: %s, %s", got[0].Skill, got[1].Skill)
	}
}

func TestChannelService_Join_Duplicate(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b")

	if _, err := svc.Join(context.Background(), chID, "b"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestChannelService_Leave_NotMember(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a")
	users.seedUser("outsider", domain.RoleClient)

	if _, err := svc.Leave(context.Background(), chID, "outsider"); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestChannelService_CreatorMayLeave_ChannelPersists(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "creator")

	count, err := svc.Leave(context.Background(), chID, "creator")
	if err != nil {
		t.Fatalf("creator leave failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 members, got %d", count)
	}

	// Channel persists empty and stays joinable.
	users.seedUser("newcomer", domain.RoleClient)
	if _, err := svc.Join(context.Background(), chID, "newcomer"); err != nil {
		t.Fatalf("join after creator left failed: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func TestChannelService_PostMessage_NonMemberRejected(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a")
	users.seedUser("outsider", domain.RoleClient)

	if _, err := svc.PostMessage(context.Background(), chID, "outsider", "hi"); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
	if _, err := svc.ListMessages(context.Background(), chID, "outsider"); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("expected ErrNotMember for read, got %v", err)
	}
}

func TestChannelService_Messages_RoundTripInOrder(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b")

	const n = 25
	for i := 0; i < n; i++ {
		if _, err := svc.PostMessage(context.Background(), chID, "a", fmt.Sprintf("msg-%02d", i)); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	msgs, err := svc.ListMessages(context.Background(), chID, "b")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(msgs) != n {
		t.Fatalf("expected %d messages, got %d", n, len(msgs))
	}
	for i, m := range msgs {
		if m.Content != fmt.Sprintf("msg-%02d", i) {
			t.Fatalf("order broken at %d: %s", i, m.Content)
		}
	}
}

func TestChannelService_Messages_RetainedAfterSenderLeaves(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b")

	if _, err := svc.PostMessage(context.Background(), chID, "b", "parting words"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.Leave(context.Background(), chID, "b"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), chID, "a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "parting words" {
		t.Fatalf("message not retained after sender left: %v", msgs)
	}
}

// ---------------------------------------------------------------------------
// Vote-kick governance
// ---------------------------------------------------------------------------

func TestChannelService_VoteKick_InitiateChecks(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c")
	users.seedUser("outsider", domain.RoleClient)

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "a", "r"); !errors.Is(err, domain.ErrSelfTarget) {
		t.Errorf("expected ErrSelfTarget, got %v", err)
	}
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "outsider", "b", "r"); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("expected ErrNotMember for outsider initiator, got %v", err)
	}
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "outsider", "r"); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("expected ErrNotMember for outsider target, got %v", err)
	}

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "c", "spam"); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "b", "c", "spam"); !errors.Is(err, domain.ErrVoteAlreadyOpen) {
		t.Errorf("expected ErrVoteAlreadyOpen, got %v", err)
	}
}

func TestChannelService_VoteKick_InitiatorVotePreCounted(t *testing.T) {
	svc, _, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c", "d", "e")

	result, err := svc.InitiateVoteKick(context.Background(), chID, "a", "e", "spam")
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if result.Votes != 1 || result.Required != 3 || result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Initiator voting again is a duplicate.
	if _, err := svc.CastVote(context.Background(), chID, "a", "e"); !errors.Is(err, domain.ErrDuplicateVote) {
		t.Errorf("expected ErrDuplicateVote, got %v", err)
	}
}

func TestChannelService_VoteKick_QuorumFiveMembers(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c", "d", "e")

	// 5 members: quorum is floor(5/2)+1 = 3, including the initiator.
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "e", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	result, err := svc.CastVote(context.Background(), chID, "b", "e")
	if err != nil {
		t.Fatalf("vote b: %v", err)
	}
	if result.Passed || result.Votes != 2 {
		t.Fatalf("vote must not pass at 2 of 3: %+v", result)
	}

	result, err = svc.CastVote(context.Background(), chID, "c", "e")
	if err != nil {
		t.Fatalf("vote c: %v", err)
	}
	if !result.Passed || result.Votes != 3 {
		t.Fatalf("vote must pass at 3 of 3: %+v", result)
	}

	ch, _ := repo.FindByID(context.Background(), chID)
	if ch.IsMember("e") {
		t.Error("target must be removed after quorum")
	}
	if _, err := repo.FindOpenVote(context.Background(), chID, "e"); !errors.Is(err, domain.ErrNoOpenVote) {
		t.Error("vote must be resolved after quorum")
	}
}

func TestChannelService_VoteKick_QuorumTwoMembers(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b")

	// 2 members: quorum is 2 — initiator alone is not enough.
	result, err := svc.InitiateVoteKick(context.Background(), chID, "a", "b", "afk")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.Passed || result.Required != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The target themselves may vote; their vote reaches quorum.
	result, err = svc.CastVote(context.Background(), chID, "b", "b")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected pass at 2 of 2: %+v", result)
	}
	ch, _ := repo.FindByID(context.Background(), chID)
	if ch.IsMember("b") {
		t.Error("target must be removed")
	}
}

func TestChannelService_VoteKick_ThreeMembersPassWithoutThirdVote(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c")

	// Channel {A,B,C}: A initiates against C, B votes. Quorum is
	// floor(3/2)+1 = 2, so C is removed immediately, no third vote.
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "c", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	result, err := svc.CastVote(context.Background(), chID, "b", "c")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !result.Passed || result.Votes != 2 || result.Required != 2 {
		t.Fatalf("expected immediate pass at 2 of 2: %+v", result)
	}
	ch, _ := repo.FindByID(context.Background(), chID)
	if ch.IsMember("c") {
		t.Error("target must be removed without a third vote")
	}
}

func TestChannelService_VoteKick_QuorumAgainstLiveMemberCount(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c", "d", "e", "f")

	// 6 members: quorum 4. Two votes in, then the channel shrinks to 4
	// members (quorum 3) — the next vote passes because the threshold is
	// recomputed against the live member count, not a snapshot.
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "f", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result, err := svc.CastVote(context.Background(), chID, "b", "f"); err != nil || result.Passed {
		t.Fatalf("vote b: %v %+v", err, result)
	}

	if _, err := svc.Leave(context.Background(), chID, "d"); err != nil {
		t.Fatalf("leave d: %v", err)
	}
	if _, err := svc.Leave(context.Background(), chID, "e"); err != nil {
		t.Fatalf("leave e: %v", err)
	}

	result, err := svc.CastVote(context.Background(), chID, "c", "f")
	if err != nil {
		t.Fatalf("vote c: %v", err)
	}
	if !result.Passed || result.Required != 3 {
		t.Fatalf("expected pass at 3 of 3 after shrink: %+v", result)
	}
	ch, _ := repo.FindByID(context.Background(), chID)
	if ch.IsMember("f") {
		t.Error("target must be removed")
	}
}

func TestChannelService_Leave_ExpiresInitiatedVote(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c", "d")

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "c", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := svc.Leave(context.Background(), chID, "a"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	// The initiator's departure expires the vote, so a fresh one can open.
	if _, err := repo.FindOpenVote(context.Background(), chID, "c"); !errors.Is(err, domain.ErrNoOpenVote) {
		t.Fatal("vote must expire when initiator leaves")
	}
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "b", "c", "again"); err != nil {
		t.Fatalf("new vote after expiry failed: %v", err)
	}
}

func TestChannelService_Leave_WithdrawsCastVotes(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c", "d", "e")

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "e", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := svc.CastVote(context.Background(), chID, "b", "e"); err != nil {
		t.Fatalf("vote b: %v", err)
	}
	if _, err := svc.Leave(context.Background(), chID, "b"); err != nil {
		t.Fatalf("leave b: %v", err)
	}

	vote, err := repo.FindOpenVote(context.Background(), chID, "e")
	if err != nil {
		t.Fatalf("open vote gone: %v", err)
	}
	if vote.HasVoted("b") || len(vote.Voters) != 1 {
		t.Fatalf("b's vote must be withdrawn: %v", vote.Voters)
	}
}

func TestChannelService_ExpireStaleVotes(t *testing.T) {
	svc, repo, users := newChannelFixture()
	chID := seedChannel(t, svc, users, "a", "b", "c")

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "c", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	// Backdate the vote past the cutoff.
	repo.mu.Lock()
	for _, v := range repo.votes {
		v.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	}
	repo.mu.Unlock()

	n, err := svc.ExpireStaleVotes(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired vote, got %d", n)
	}

	// A new vote may now be opened on the same target.
	if _, err := svc.InitiateVoteKick(context.Background(), chID, "b", "c", "again"); err != nil {
		t.Fatalf("new vote after expiry failed: %v", err)
	}
}

func TestChannelService_ConcurrentVotes_SingleKick(t *testing.T) {
	svc, repo, users := newChannelFixture()
	members := []string{"a", "b", "c", "d", "e", "f", "g"}
	chID := seedChannel(t, svc, users, members...)

	if _, err := svc.InitiateVoteKick(context.Background(), chID, "a", "g", "spam"); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// All remaining members vote concurrently; exactly one cast observes
	// the quorum trigger and the target is removed exactly once.
	var wg sync.WaitGroup
	passed := make(chan bool, len(members))
	for _, m := range members[1 : len(members)-1] {
		wg.Add(1)
		go func(voter string) {
			defer wg.Done()
			result, err := svc.CastVote(context.Background(), chID, voter, "g")
			if err != nil {
				return
			}
			passed <- result.Passed
		}(m)
	}
	wg.Wait()
	close(passed)

	var passCount int
	for p := range passed {
		if p {
			passCount++
		}
	}
	if passCount != 1 {
		t.Fatalf("expected exactly one pass, got %d", passCount)
	}
	ch, _ := repo.FindByID(context.Background(), chID)
	if ch.IsMember("g") {
		t.Error("target must be removed")
	}
}
