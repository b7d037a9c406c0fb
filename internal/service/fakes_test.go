package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/notify"
	"fairway/roundhub/internal/social"
)

// In-memory repository fakes. SaveAndRecount and DeleteAndRecount mirror
// the transactional behavior of the Postgres implementation: the
// membership write and the round's accepted_count refresh land together
// under one mutex.

type fakeRoundRepo struct {
	mu     sync.Mutex
	rounds map[uuid.UUID]*model.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[uuid.UUID]*model.Round)}
}

func (r *fakeRoundRepo) Create(_ context.Context, round *model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	cp := *round
	r.rounds[round.ID] = &cp
	return nil
}

func (r *fakeRoundRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *round
	return &cp, nil
}

func (r *fakeRoundRepo) Update(_ context.Context, round *model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rounds[round.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *round
	r.rounds[round.ID] = &cp
	return nil
}

func (r *fakeRoundRepo) ListOpen(_ context.Context, limit int) ([]model.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Round
	for _, round := range r.rounds {
		if round.Status == model.RoundStatusOpen {
			out = append(out, *round)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) ListByHost(_ context.Context, hostID uuid.UUID) ([]model.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Round
	for _, round := range r.rounds {
		if round.HostID == hostID {
			out = append(out, *round)
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) ListJoinedBy(ctx context.Context, userID uuid.UUID) ([]model.Round, error) {
	return nil, nil
}

type membershipKey struct {
	roundID uuid.UUID
	userID  uuid.UUID
}

type fakeMembershipRepo struct {
	mu      sync.Mutex
	rows    map[membershipKey]*model.Membership
	rounds  *fakeRoundRepo
	saveErr error
}

func newFakeMembershipRepo(rounds *fakeRoundRepo) *fakeMembershipRepo {
	return &fakeMembershipRepo{
		rows:   make(map[membershipKey]*model.Membership),
		rounds: rounds,
	}
}

func (r *fakeMembershipRepo) GetByRoundAndUser(_ context.Context, roundID, userID uuid.UUID) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[membershipKey{roundID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembershipRepo) ListByRound(_ context.Context, roundID uuid.UUID) ([]model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Membership
	for k, m := range r.rows {
		if k.roundID == roundID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) ListByRoundAndStatus(_ context.Context, roundID uuid.UUID, status model.MemberStatus) ([]model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Membership
	for k, m := range r.rows {
		if k.roundID == roundID && m.Status == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) CountAccepted(_ context.Context, roundID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countAcceptedLocked(roundID), nil
}

func (r *fakeMembershipRepo) SaveAndRecount(_ context.Context, m *model.Membership) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	r.rows[membershipKey{m.RoundID, m.UserID}] = &cp
	return r.recountLocked(m.RoundID), nil
}

func (r *fakeMembershipRepo) DeleteAndRecount(_ context.Context, m *model.Membership) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, membershipKey{m.RoundID, m.UserID})
	return r.recountLocked(m.RoundID), nil
}

func (r *fakeMembershipRepo) countAcceptedLocked(roundID uuid.UUID) int64 {
	var n int64
	for k, m := range r.rows {
		if k.roundID == roundID && m.Status == model.MemberStatusAccepted {
			n++
		}
	}
	return n
}

func (r *fakeMembershipRepo) recountLocked(roundID uuid.UUID) int {
	accepted := int(r.countAcceptedLocked(roundID)) + 1 // host
	r.rounds.mu.Lock()
	if round, ok := r.rounds.rounds[roundID]; ok {
		round.AcceptedCount = accepted
	}
	r.rounds.mu.Unlock()
	return accepted
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type fakeFriendLinkRepo struct {
	mu    sync.Mutex
	pairs map[[2]uuid.UUID]bool
}

func newFakeFriendLinkRepo() *fakeFriendLinkRepo {
	return &fakeFriendLinkRepo{pairs: make(map[[2]uuid.UUID]bool)}
}

func (r *fakeFriendLinkRepo) pairKey(a, b uuid.UUID) [2]uuid.UUID {
	x, y := model.OrderFriendPair(a, b)
	return [2]uuid.UUID{x, y}
}

func (r *fakeFriendLinkRepo) Create(_ context.Context, link *model.FriendLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[r.pairKey(link.UserA, link.UserB)] = true
	return nil
}

func (r *fakeFriendLinkRepo) Delete(_ context.Context, a, b uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pairs, r.pairKey(a, b))
	return nil
}

func (r *fakeFriendLinkRepo) Exists(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pairs[r.pairKey(a, b)], nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Publish(_ context.Context, e notify.Event) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}

// coordinator bundles a fully wired service pair over the fakes.
type coordinator struct {
	rounds     *fakeRoundRepo
	members    *fakeMembershipRepo
	users      *fakeUserRepo
	links      *fakeFriendLinkRepo
	notifier   *recordingNotifier
	round      RoundService
	membership MembershipService
}

func newCoordinator() *coordinator {
	c := &coordinator{
		rounds:   newFakeRoundRepo(),
		users:    newFakeUserRepo(),
		links:    newFakeFriendLinkRepo(),
		notifier: &recordingNotifier{},
	}
	c.members = newFakeMembershipRepo(c.rounds)

	graph := social.NewGraph(c.links)
	gate := social.NewProfileGate(c.users)
	locker := NewRoundLocker()
	allocator := NewSeatAllocator(c.members)

	c.round = NewRoundService(c.rounds, c.members, c.users, graph, locker, c.notifier)
	c.membership = NewMembershipService(c.rounds, c.members, c.users, gate, graph, allocator, locker, c.notifier)
	return c
}

// addUser creates a user with a complete profile.
func (c *coordinator) addUser(name string) uuid.UUID {
	u := &model.User{Email: name + "@example.com", DisplayName: name, HomeCity: "Bend"}
	_ = c.users.Create(context.Background(), u)
	return u.ID
}

// addBareUser creates a user missing the minimum profile.
func (c *coordinator) addBareUser(name string) uuid.UUID {
	u := &model.User{Email: name + "@example.com"}
	_ = c.users.Create(context.Background(), u)
	return u.ID
}

func (c *coordinator) addRound(hostID uuid.UUID, policy model.JoinPolicy, visibility model.Visibility, maxPlayers int) uuid.UUID {
	round := &model.Round{
		HostID:        hostID,
		CourseName:    "Pumpkin Ridge",
		TeeTime:       time.Now().Add(48 * time.Hour),
		Status:        model.RoundStatusOpen,
		JoinPolicy:    policy,
		Visibility:    visibility,
		MaxPlayers:    maxPlayers,
		AcceptedCount: 1,
	}
	_ = c.rounds.Create(context.Background(), round)
	return round.ID
}

func (c *coordinator) befriend(a, b uuid.UUID) {
	_ = c.links.Create(context.Background(), &model.FriendLink{UserA: a, UserB: b})
}

func (c *coordinator) roundState(t testingT, id uuid.UUID) *model.Round {
	round, err := c.rounds.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	return round
}

// testingT is the subset of *testing.T the helpers need.
type testingT interface {
	Fatalf(format string, args ...any)
}
