package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/notify"
	"fairway/roundhub/internal/repository"
	"fairway/roundhub/internal/social"
)

// Roster is the membership view of a round. Pending requests and open
// invites are populated for the host only.
type Roster struct {
	Accepted []model.Membership `json:"accepted"`
	Pending  []model.Membership `json:"pending,omitempty"`
	Invited  []model.Membership `json:"invited,omitempty"`
}

// MembershipService validates and applies every member-status
// transition. It is the single authority on "is this transition legal
// right now"; handlers never reason about statuses themselves.
//
// Every mutation runs under the round's lock and gates in a fixed
// order: round status, authorization, external collaborators (profile,
// social graph), transition validity, capacity. Seat-consuming
// transitions consult the allocator only after everything else passed,
// so a rejected caller never costs a seat.
type MembershipService interface {
	// Join dispatches to JoinInstant or RequestToJoin by the round's policy.
	Join(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	RequestToJoin(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	JoinInstant(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	CancelRequest(ctx context.Context, roundID, actorID uuid.UUID) error
	AcceptMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error)
	DeclineMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error)
	InviteMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error)
	AcceptInvite(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	DeclineInvite(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	LeaveRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)
	RemoveMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error)

	StatusOf(ctx context.Context, roundID, userID uuid.UUID) (model.MemberStatus, bool, error)
	RoundRoster(ctx context.Context, roundID, viewerID uuid.UUID) (*Roster, error)
}

type membershipService struct {
	rounds    repository.RoundRepository
	members   repository.MembershipRepository
	users     repository.UserRepository
	gate      social.ProfileGate
	graph     social.Graph
	allocator *SeatAllocator
	locks     *RoundLocker
	notifier  notify.Notifier
}

func NewMembershipService(
	rounds repository.RoundRepository,
	members repository.MembershipRepository,
	users repository.UserRepository,
	gate social.ProfileGate,
	graph social.Graph,
	allocator *SeatAllocator,
	locks *RoundLocker,
	notifier notify.Notifier,
) MembershipService {
	return &membershipService{
		rounds:    rounds,
		members:   members,
		users:     users,
		gate:      gate,
		graph:     graph,
		allocator: allocator,
		locks:     locks,
		notifier:  notifier,
	}
}

func (s *membershipService) Join(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.JoinPolicy == model.JoinPolicyInstant {
		return s.JoinInstant(ctx, roundID, actorID)
	}
	return s.RequestToJoin(ctx, roundID, actorID)
}

func (s *membershipService) RequestToJoin(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if actorID == round.HostID {
		return nil, ErrAlreadyHost
	}
	if round.JoinPolicy != model.JoinPolicyApproval {
		return nil, ErrWrongJoinPolicy
	}
	if err := s.checkJoinGates(ctx, round, actorID); err != nil {
		return nil, err
	}

	m, err := s.entryRecord(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	m.Status = model.MemberStatusRequested
	m.InvitedBy = nil

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberRequested, round, actorID, actorID, []uuid.UUID{round.HostID})
	return m, nil
}

func (s *membershipService) JoinInstant(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if actorID == round.HostID {
		return nil, ErrAlreadyHost
	}
	if round.JoinPolicy != model.JoinPolicyInstant {
		return nil, ErrWrongJoinPolicy
	}
	if err := s.checkJoinGates(ctx, round, actorID); err != nil {
		return nil, err
	}

	m, err := s.entryRecord(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.allocator.Reserve(ctx, round); err != nil {
		return nil, err
	}
	m.Status = model.MemberStatusAccepted
	m.InvitedBy = nil

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberAccepted, round, actorID, actorID, []uuid.UUID{round.HostID})
	return m, nil
}

func (s *membershipService) CancelRequest(ctx context.Context, roundID, actorID uuid.UUID) error {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return err
	}

	m, found, err := s.statusRecord(ctx, roundID, actorID)
	if err != nil {
		return err
	}
	if !found || m.Status != model.MemberStatusRequested {
		return ErrInvalidTransition
	}

	if _, err := s.members.DeleteAndRecount(ctx, m); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	s.publish(ctx, notify.KindRequestCanceled, round, actorID, actorID, []uuid.UUID{round.HostID})
	return nil
}

func (s *membershipService) AcceptMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostMutableRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if targetID == round.HostID {
		return nil, ErrAlreadyHost
	}

	m, found, err := s.statusRecord(ctx, roundID, targetID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusRequested {
		return nil, ErrInvalidTransition
	}

	// On ErrRoundFull the request stays requested; the host may retry
	// after a seat frees up.
	if err := s.allocator.Reserve(ctx, round); err != nil {
		return nil, err
	}
	m.Status = model.MemberStatusAccepted

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberAccepted, round, actorID, targetID, []uuid.UUID{targetID})
	return m, nil
}

func (s *membershipService) DeclineMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostMutableRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}

	m, found, err := s.statusRecord(ctx, roundID, targetID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusRequested {
		return nil, ErrInvalidTransition
	}
	m.Status = model.MemberStatusDeclined

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberDeclined, round, actorID, targetID, []uuid.UUID{targetID})
	return m, nil
}

func (s *membershipService) InviteMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostMutableRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if targetID == round.HostID {
		return nil, ErrAlreadyHost
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	m, err := s.entryRecord(ctx, roundID, targetID)
	if err != nil {
		return nil, err
	}
	inviter := actorID
	m.Status = model.MemberStatusInvited
	m.InvitedBy = &inviter

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberInvited, round, actorID, targetID, []uuid.UUID{targetID})
	return m, nil
}

func (s *membershipService) AcceptInvite(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	m, found, err := s.statusRecord(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusInvited {
		return nil, ErrInvalidTransition
	}

	ok, err := s.gate.HasMinimumProfile(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("profile gate: %w", err)
	}
	if !ok {
		return nil, ErrProfileIncomplete
	}

	if err := s.allocator.Reserve(ctx, round); err != nil {
		return nil, err
	}
	m.Status = model.MemberStatusAccepted

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	recipients := []uuid.UUID{round.HostID}
	if m.InvitedBy != nil && *m.InvitedBy != round.HostID {
		recipients = append(recipients, *m.InvitedBy)
	}
	s.publish(ctx, notify.KindInviteAccepted, round, actorID, actorID, recipients)
	return m, nil
}

func (s *membershipService) DeclineInvite(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	m, found, err := s.statusRecord(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusInvited {
		return nil, ErrInvalidTransition
	}
	m.Status = model.MemberStatusDeclined

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindInviteDeclined, round, actorID, actorID, []uuid.UUID{round.HostID})
	return m, nil
}

func (s *membershipService) LeaveRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if actorID == round.HostID {
		return nil, ErrAlreadyHost
	}

	m, found, err := s.statusRecord(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusAccepted {
		return nil, ErrInvalidTransition
	}
	m.Status = model.MemberStatusLeft

	// The recount is the seat release; no separate allocator call.
	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberLeft, round, actorID, actorID, []uuid.UUID{round.HostID})
	return m, nil
}

func (s *membershipService) RemoveMember(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostMutableRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if targetID == round.HostID {
		return nil, ErrAlreadyHost
	}

	m, found, err := s.statusRecord(ctx, roundID, targetID)
	if err != nil {
		return nil, err
	}
	if !found || m.Status != model.MemberStatusAccepted {
		return nil, ErrInvalidTransition
	}
	m.Status = model.MemberStatusRemoved

	if _, err := s.members.SaveAndRecount(ctx, m); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	s.publish(ctx, notify.KindMemberRemoved, round, actorID, targetID, []uuid.UUID{targetID})
	return m, nil
}

func (s *membershipService) StatusOf(ctx context.Context, roundID, userID uuid.UUID) (model.MemberStatus, bool, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return "", false, err
	}
	// The host is always accepted and never has a row.
	if userID == round.HostID {
		return model.MemberStatusAccepted, true, nil
	}
	m, found, err := s.statusRecord(ctx, roundID, userID)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return m.Status, true, nil
}

func (s *membershipService) RoundRoster(ctx context.Context, roundID, viewerID uuid.UUID) (*Roster, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	accepted, err := s.members.ListByRoundAndStatus(ctx, roundID, model.MemberStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("list accepted members: %w", err)
	}
	roster := &Roster{Accepted: accepted}

	if viewerID == round.HostID {
		if roster.Pending, err = s.members.ListByRoundAndStatus(ctx, roundID, model.MemberStatusRequested); err != nil {
			return nil, fmt.Errorf("list pending requests: %w", err)
		}
		if roster.Invited, err = s.members.ListByRoundAndStatus(ctx, roundID, model.MemberStatusInvited); err != nil {
			return nil, fmt.Errorf("list invited users: %w", err)
		}
	}
	return roster, nil
}

// --- helpers ---

func (s *membershipService) loadRound(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("find round: %w", err)
	}
	return round, nil
}

func (s *membershipService) mutableRound(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status.Terminal() {
		return nil, ErrRoundTerminal
	}
	return round, nil
}

func (s *membershipService) hostMutableRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	round, err := s.mutableRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.HostID != actorID {
		return nil, ErrNotHost
	}
	return round, nil
}

// statusRecord wraps the "none" state: found == false means the pair has
// no record.
func (s *membershipService) statusRecord(ctx context.Context, roundID, userID uuid.UUID) (*model.Membership, bool, error) {
	m, err := s.members.GetByRoundAndUser(ctx, roundID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find membership: %w", err)
	}
	return m, true, nil
}

// entryRecord returns a membership row ready for a fresh request or
// invite: a new row when none exists, or the old one when the user is
// re-entering after decline, removal, or leaving. Any other current
// status means the operation is illegal.
func (s *membershipService) entryRecord(ctx context.Context, roundID, userID uuid.UUID) (*model.Membership, error) {
	m, found, err := s.statusRecord(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.Membership{RoundID: roundID, UserID: userID}, nil
	}
	if !m.Status.Rejoinable() {
		return nil, ErrInvalidTransition
	}
	return m, nil
}

// checkJoinGates applies the collaborator preconditions for a join or
// request: minimum profile, then friends-only visibility.
func (s *membershipService) checkJoinGates(ctx context.Context, round *model.Round, actorID uuid.UUID) error {
	ok, err := s.gate.HasMinimumProfile(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("profile gate: %w", err)
	}
	if !ok {
		return ErrProfileIncomplete
	}

	if round.Visibility == model.VisibilityFriends {
		ok, err := s.graph.IsFriend(ctx, round.HostID, actorID)
		if err != nil {
			return fmt.Errorf("friend check: %w", err)
		}
		if !ok {
			return ErrNotAllowed
		}
	}
	return nil
}

func (s *membershipService) publish(ctx context.Context, kind notify.Kind, round *model.Round, actorID, subjectID uuid.UUID, recipients []uuid.UUID) {
	s.notifier.Publish(ctx, notify.Event{
		Kind:       kind,
		RoundID:    round.ID,
		ActorID:    actorID,
		SubjectID:  subjectID,
		Recipients: recipients,
		OccurredAt: time.Now(),
	})
}

var _ MembershipService = (*membershipService)(nil)
