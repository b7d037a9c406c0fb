package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
)

func TestJoinInstantGrantsSeat(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	player := c.addUser("player")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)

	m, err := c.membership.Join(context.Background(), roundID, player)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.Status != model.MemberStatusAccepted {
		t.Fatalf("status = %q, want accepted", m.Status)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 2 {
		t.Fatalf("accepted_count = %d, want 2", got)
	}
}

func TestJoinApprovalRecordsRequest(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	player := c.addUser("player")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	m, err := c.membership.Join(context.Background(), roundID, player)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.Status != model.MemberStatusRequested {
		t.Fatalf("status = %q, want requested", m.Status)
	}
	// A request holds no seat.
	if got := c.roundState(t, roundID).AcceptedCount; got != 1 {
		t.Fatalf("accepted_count = %d, want 1", got)
	}
}

// The allocator's single guarantee: with N free seats and more than N
// concurrent grants, exactly N pass.
func TestJoinInstantConcurrentLastSeats(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4) // host + 3 seats

	const contenders = 8
	players := make([]uuid.UUID, contenders)
	for i := range players {
		players[i] = c.addUser("p" + string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i, p := range players {
		wg.Add(1)
		go func(i int, p uuid.UUID) {
			defer wg.Done()
			_, errs[i] = c.membership.JoinInstant(context.Background(), roundID, p)
		}(i, p)
	}
	wg.Wait()

	var won, full int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrRoundFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 3 || full != contenders-3 {
		t.Fatalf("won = %d, full = %d, want 3 and %d", won, full, contenders-3)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 4 {
		t.Fatalf("accepted_count = %d, want 4", got)
	}
}

func TestJoinPolicyMismatch(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	player := c.addUser("player")
	instant := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)
	approval := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	if _, err := c.membership.RequestToJoin(context.Background(), instant, player); !errors.Is(err, ErrWrongJoinPolicy) {
		t.Fatalf("request on instant round: %v, want ErrWrongJoinPolicy", err)
	}
	if _, err := c.membership.JoinInstant(context.Background(), approval, player); !errors.Is(err, ErrWrongJoinPolicy) {
		t.Fatalf("instant join on approval round: %v, want ErrWrongJoinPolicy", err)
	}
}

func TestJoinGates(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	bare := c.addBareUser("bare")
	stranger := c.addUser("stranger")
	friend := c.addUser("friend")
	c.befriend(host, friend)

	public := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)
	friendsOnly := c.addRound(host, model.JoinPolicyInstant, model.VisibilityFriends, 4)

	if _, err := c.membership.Join(context.Background(), public, bare); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("bare profile join: %v, want ErrProfileIncomplete", err)
	}
	if _, err := c.membership.Join(context.Background(), friendsOnly, stranger); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("stranger join: %v, want ErrNotAllowed", err)
	}
	if _, err := c.membership.Join(context.Background(), friendsOnly, friend); err != nil {
		t.Fatalf("friend join: %v", err)
	}
}

func TestHostCannotJoinOrLeave(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)

	if _, err := c.membership.Join(context.Background(), roundID, host); !errors.Is(err, ErrAlreadyHost) {
		t.Fatalf("host join: %v, want ErrAlreadyHost", err)
	}
	if _, err := c.membership.LeaveRound(context.Background(), roundID, host); !errors.Is(err, ErrAlreadyHost) {
		t.Fatalf("host leave: %v, want ErrAlreadyHost", err)
	}
}

func TestApprovalAcceptDeclineFlow(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); err != nil {
		t.Fatalf("alice request: %v", err)
	}
	if _, err := c.membership.RequestToJoin(ctx, roundID, bob); err != nil {
		t.Fatalf("bob request: %v", err)
	}

	m, err := c.membership.AcceptMember(ctx, roundID, host, alice)
	if err != nil {
		t.Fatalf("accept alice: %v", err)
	}
	if m.Status != model.MemberStatusAccepted {
		t.Fatalf("alice status = %q, want accepted", m.Status)
	}

	m, err = c.membership.DeclineMember(ctx, roundID, host, bob)
	if err != nil {
		t.Fatalf("decline bob: %v", err)
	}
	if m.Status != model.MemberStatusDeclined {
		t.Fatalf("bob status = %q, want declined", m.Status)
	}

	// Only the host may adjudicate requests.
	if _, err := c.membership.RequestToJoin(ctx, roundID, bob); err != nil {
		t.Fatalf("bob re-request: %v", err)
	}
	if _, err := c.membership.AcceptMember(ctx, roundID, alice, bob); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host accept: %v, want ErrNotHost", err)
	}
}

// On a full round the request stays requested so the host can retry
// after a seat frees up.
func TestAcceptMemberFullRoundKeepsRequest(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 2) // host + 1 seat

	ctx := context.Background()
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); err != nil {
		t.Fatalf("alice request: %v", err)
	}
	if _, err := c.membership.RequestToJoin(ctx, roundID, bob); err != nil {
		t.Fatalf("bob request: %v", err)
	}
	if _, err := c.membership.AcceptMember(ctx, roundID, host, alice); err != nil {
		t.Fatalf("accept alice: %v", err)
	}

	if _, err := c.membership.AcceptMember(ctx, roundID, host, bob); !errors.Is(err, ErrRoundFull) {
		t.Fatalf("accept bob: %v, want ErrRoundFull", err)
	}
	status, found, err := c.membership.StatusOf(ctx, roundID, bob)
	if err != nil || !found {
		t.Fatalf("status of bob: %v, found=%v", err, found)
	}
	if status != model.MemberStatusRequested {
		t.Fatalf("bob status = %q, want requested", status)
	}

	// Alice leaves; the seat frees and the retry succeeds.
	if _, err := c.membership.LeaveRound(ctx, roundID, alice); err != nil {
		t.Fatalf("alice leave: %v", err)
	}
	if _, err := c.membership.AcceptMember(ctx, roundID, host, bob); err != nil {
		t.Fatalf("retry accept bob: %v", err)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 2 {
		t.Fatalf("accepted_count = %d, want 2", got)
	}
}

func TestCancelRequestReturnsToNone(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	player := c.addUser("player")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.RequestToJoin(ctx, roundID, player); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := c.membership.CancelRequest(ctx, roundID, player); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, found, err := c.membership.StatusOf(ctx, roundID, player)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if found {
		t.Fatal("membership record survived cancel, want none")
	}

	// Canceling with nothing pending is not a legal transition.
	if err := c.membership.CancelRequest(ctx, roundID, player); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel: %v, want ErrInvalidTransition", err)
	}
}

func TestInviteFlow(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	m, err := c.membership.InviteMember(ctx, roundID, host, alice)
	if err != nil {
		t.Fatalf("invite alice: %v", err)
	}
	if m.Status != model.MemberStatusInvited {
		t.Fatalf("alice status = %q, want invited", m.Status)
	}
	if m.InvitedBy == nil || *m.InvitedBy != host {
		t.Fatalf("invited_by = %v, want host", m.InvitedBy)
	}

	// An invite holds no seat until accepted.
	if got := c.roundState(t, roundID).AcceptedCount; got != 1 {
		t.Fatalf("accepted_count = %d, want 1", got)
	}

	m, err = c.membership.AcceptInvite(ctx, roundID, alice)
	if err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if m.Status != model.MemberStatusAccepted {
		t.Fatalf("alice status = %q, want accepted", m.Status)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 2 {
		t.Fatalf("accepted_count = %d, want 2", got)
	}

	if _, err := c.membership.InviteMember(ctx, roundID, host, bob); err != nil {
		t.Fatalf("invite bob: %v", err)
	}
	m, err = c.membership.DeclineInvite(ctx, roundID, bob)
	if err != nil {
		t.Fatalf("decline invite: %v", err)
	}
	if m.Status != model.MemberStatusDeclined {
		t.Fatalf("bob status = %q, want declined", m.Status)
	}

	if _, err := c.membership.InviteMember(ctx, roundID, host, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("invite unknown user: %v, want ErrUserNotFound", err)
	}
	if _, err := c.membership.InviteMember(ctx, roundID, alice, bob); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host invite: %v, want ErrNotHost", err)
	}
}

func TestAcceptInviteRequiresProfile(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	bare := c.addBareUser("bare")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.InviteMember(ctx, roundID, host, bare); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := c.membership.AcceptInvite(ctx, roundID, bare); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("accept invite: %v, want ErrProfileIncomplete", err)
	}
	// The invite survives the failed accept.
	status, found, _ := c.membership.StatusOf(ctx, roundID, bare)
	if !found || status != model.MemberStatusInvited {
		t.Fatalf("status = %q, found=%v, want invited", status, found)
	}
}

func TestLeaveReleasesSeat(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 2) // host + 1 seat

	ctx := context.Background()
	if _, err := c.membership.JoinInstant(ctx, roundID, alice); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if _, err := c.membership.JoinInstant(ctx, roundID, bob); !errors.Is(err, ErrRoundFull) {
		t.Fatalf("bob join on full round: %v, want ErrRoundFull", err)
	}

	if _, err := c.membership.LeaveRound(ctx, roundID, alice); err != nil {
		t.Fatalf("alice leave: %v", err)
	}
	if _, err := c.membership.JoinInstant(ctx, roundID, bob); err != nil {
		t.Fatalf("bob join after seat freed: %v", err)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 2 {
		t.Fatalf("accepted_count = %d, want 2", got)
	}
}

func TestRemoveMember(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.JoinInstant(ctx, roundID, alice); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := c.membership.RemoveMember(ctx, roundID, alice, alice); !errors.Is(err, ErrNotHost) {
		t.Fatalf("self remove: %v, want ErrNotHost", err)
	}

	m, err := c.membership.RemoveMember(ctx, roundID, host, alice)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Status != model.MemberStatusRemoved {
		t.Fatalf("status = %q, want removed", m.Status)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 1 {
		t.Fatalf("accepted_count = %d, want 1", got)
	}

	// Removal is not a ban: the user may join again.
	if _, err := c.membership.JoinInstant(ctx, roundID, alice); err != nil {
		t.Fatalf("rejoin after removal: %v", err)
	}
}

func TestReentryRules(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); err != nil {
		t.Fatalf("request: %v", err)
	}

	// A pending request blocks a second entry of either kind.
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double request: %v, want ErrInvalidTransition", err)
	}
	if _, err := c.membership.InviteMember(ctx, roundID, host, alice); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("invite over request: %v, want ErrInvalidTransition", err)
	}

	if _, err := c.membership.DeclineMember(ctx, roundID, host, alice); err != nil {
		t.Fatalf("decline: %v", err)
	}
	// Declined users may be invited back.
	if _, err := c.membership.InviteMember(ctx, roundID, host, alice); err != nil {
		t.Fatalf("invite after decline: %v", err)
	}

	// An accepted member cannot re-enter.
	if _, err := c.membership.AcceptInvite(ctx, roundID, alice); err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("request while accepted: %v, want ErrInvalidTransition", err)
	}
}

// Cancel is terminal: the round freezes with its roster as-is and every
// later membership mutation fails.
func TestCanceledRoundFreezesMemberships(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	carol := c.addUser("carol")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	for _, p := range []uuid.UUID{alice, bob} {
		if _, err := c.membership.RequestToJoin(ctx, roundID, p); err != nil {
			t.Fatalf("request: %v", err)
		}
		if _, err := c.membership.AcceptMember(ctx, roundID, host, p); err != nil {
			t.Fatalf("accept: %v", err)
		}
	}
	if _, err := c.membership.RequestToJoin(ctx, roundID, carol); err != nil {
		t.Fatalf("carol request: %v", err)
	}

	if _, err := c.round.CancelRound(ctx, roundID, host); err != nil {
		t.Fatalf("cancel round: %v", err)
	}

	if _, err := c.membership.AcceptMember(ctx, roundID, host, carol); !errors.Is(err, ErrRoundTerminal) {
		t.Fatalf("accept on canceled round: %v, want ErrRoundTerminal", err)
	}
	if _, err := c.membership.LeaveRound(ctx, roundID, alice); !errors.Is(err, ErrRoundTerminal) {
		t.Fatalf("leave canceled round: %v, want ErrRoundTerminal", err)
	}
	if _, err := c.membership.Join(ctx, roundID, c.addUser("dave")); !errors.Is(err, ErrRoundTerminal) {
		t.Fatalf("join canceled round: %v, want ErrRoundTerminal", err)
	}
}

// Closing a round stops advertising it but membership operations stay
// legal.
func TestClosedRoundStillMutable(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.round.CloseRound(ctx, roundID, host); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := c.membership.JoinInstant(ctx, roundID, alice); err != nil {
		t.Fatalf("join closed round: %v", err)
	}
	if _, err := c.membership.LeaveRound(ctx, roundID, alice); err != nil {
		t.Fatalf("leave closed round: %v", err)
	}
}

func TestStatusOfHost(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 4)

	status, found, err := c.membership.StatusOf(context.Background(), roundID, host)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !found || status != model.MemberStatusAccepted {
		t.Fatalf("host status = %q, found=%v, want accepted", status, found)
	}
}

func TestRoundRosterVisibility(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	carol := c.addUser("carol")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	ctx := context.Background()
	if _, err := c.membership.RequestToJoin(ctx, roundID, alice); err != nil {
		t.Fatalf("alice request: %v", err)
	}
	if _, err := c.membership.AcceptMember(ctx, roundID, host, alice); err != nil {
		t.Fatalf("accept alice: %v", err)
	}
	if _, err := c.membership.RequestToJoin(ctx, roundID, bob); err != nil {
		t.Fatalf("bob request: %v", err)
	}
	if _, err := c.membership.InviteMember(ctx, roundID, host, carol); err != nil {
		t.Fatalf("invite carol: %v", err)
	}

	hostView, err := c.membership.RoundRoster(ctx, roundID, host)
	if err != nil {
		t.Fatalf("host roster: %v", err)
	}
	if len(hostView.Accepted) != 1 || len(hostView.Pending) != 1 || len(hostView.Invited) != 1 {
		t.Fatalf("host roster = %d/%d/%d, want 1/1/1",
			len(hostView.Accepted), len(hostView.Pending), len(hostView.Invited))
	}

	memberView, err := c.membership.RoundRoster(ctx, roundID, alice)
	if err != nil {
		t.Fatalf("member roster: %v", err)
	}
	if len(memberView.Accepted) != 1 {
		t.Fatalf("member roster accepted = %d, want 1", len(memberView.Accepted))
	}
	if memberView.Pending != nil || memberView.Invited != nil {
		t.Fatal("pending/invited lists leaked to a non-host viewer")
	}
}

func TestJoinNotifiesHost(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	player := c.addUser("player")
	roundID := c.addRound(host, model.JoinPolicyApproval, model.VisibilityPublic, 4)

	if _, err := c.membership.RequestToJoin(context.Background(), roundID, player); err != nil {
		t.Fatalf("request: %v", err)
	}

	c.notifier.mu.Lock()
	defer c.notifier.mu.Unlock()
	if len(c.notifier.events) != 1 {
		t.Fatalf("published %d events, want 1", len(c.notifier.events))
	}
	e := c.notifier.events[0]
	if e.Kind != "member_requested" {
		t.Fatalf("event kind = %q, want member_requested", e.Kind)
	}
	if len(e.Recipients) != 1 || e.Recipients[0] != host {
		t.Fatalf("recipients = %v, want [host]", e.Recipients)
	}
}

// A failed membership write must not lose a seat: the allocator never
// reserves ahead of the commit.
func TestFailedWriteLeaksNoSeat(t *testing.T) {
	c := newCoordinator()
	host := c.addUser("host")
	alice := c.addUser("alice")
	bob := c.addUser("bob")
	roundID := c.addRound(host, model.JoinPolicyInstant, model.VisibilityPublic, 2) // host + 1 seat

	ctx := context.Background()
	c.members.saveErr = errors.New("connection reset")
	if _, err := c.membership.JoinInstant(ctx, roundID, alice); err == nil {
		t.Fatal("join succeeded despite storage failure")
	}
	c.members.saveErr = nil

	// The seat is still free.
	if _, err := c.membership.JoinInstant(ctx, roundID, bob); err != nil {
		t.Fatalf("join after failed write: %v", err)
	}
	if got := c.roundState(t, roundID).AcceptedCount; got != 2 {
		t.Fatalf("accepted_count = %d, want 2", got)
	}
}
