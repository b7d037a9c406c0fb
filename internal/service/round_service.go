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

type CreateRoundParams struct {
	CourseName string
	TeeTime    time.Time
	JoinPolicy model.JoinPolicy
	Visibility model.Visibility
	MaxPlayers int
}

// EditRoundPatch carries host edits; nil fields are left unchanged.
// There is deliberately no host field — the host is immutable.
type EditRoundPatch struct {
	CourseName *string
	TeeTime    *time.Time
	JoinPolicy *model.JoinPolicy
	Visibility *model.Visibility
	MaxPlayers *int
}

type RoundService interface {
	CreateRound(ctx context.Context, hostID uuid.UUID, params CreateRoundParams) (*model.Round, error)
	GetRound(ctx context.Context, roundID uuid.UUID) (*model.Round, error)
	ListOpenRounds(ctx context.Context, viewerID uuid.UUID, limit int) ([]model.Round, error)
	ListRoundsHostedBy(ctx context.Context, hostID uuid.UUID) ([]model.Round, error)
	ListRoundsJoinedBy(ctx context.Context, userID uuid.UUID) ([]model.Round, error)
	EditRound(ctx context.Context, roundID, actorID uuid.UUID, patch EditRoundPatch) (*model.Round, error)
	CloseRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error)
	ReopenRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error)
	CancelRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error)
	MarkCompleted(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error)
}

type roundService struct {
	rounds   repository.RoundRepository
	members  repository.MembershipRepository
	users    repository.UserRepository
	graph    social.Graph
	locks    *RoundLocker
	notifier notify.Notifier
}

func NewRoundService(
	rounds repository.RoundRepository,
	members repository.MembershipRepository,
	users repository.UserRepository,
	graph social.Graph,
	locks *RoundLocker,
	notifier notify.Notifier,
) RoundService {
	return &roundService{
		rounds:   rounds,
		members:  members,
		users:    users,
		graph:    graph,
		locks:    locks,
		notifier: notifier,
	}
}

func (s *roundService) CreateRound(ctx context.Context, hostID uuid.UUID, params CreateRoundParams) (*model.Round, error) {
	if params.MaxPlayers < 1 {
		return nil, ErrCapacityBelowAccepted
	}
	if !params.JoinPolicy.Valid() || !params.Visibility.Valid() {
		return nil, fmt.Errorf("invalid join policy or visibility")
	}
	if params.CourseName == "" {
		return nil, fmt.Errorf("course name is required")
	}

	if _, err := s.users.GetByID(ctx, hostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find host: %w", err)
	}

	round := &model.Round{
		HostID:     hostID,
		CourseName: params.CourseName,
		TeeTime:    params.TeeTime,
		Status:     model.RoundStatusOpen,
		JoinPolicy: params.JoinPolicy,
		Visibility: params.Visibility,
		MaxPlayers: params.MaxPlayers,
		// The host holds the first seat.
		AcceptedCount: 1,
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}
	return round, nil
}

func (s *roundService) GetRound(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	return s.loadRound(ctx, roundID)
}

// ListOpenRounds returns open rounds the viewer is allowed to see:
// public ones plus friends-only rounds hosted by a friend.
func (s *roundService) ListOpenRounds(ctx context.Context, viewerID uuid.UUID, limit int) ([]model.Round, error) {
	rounds, err := s.rounds.ListOpen(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list open rounds: %w", err)
	}

	visible := make([]model.Round, 0, len(rounds))
	for _, r := range rounds {
		if r.Visibility == model.VisibilityFriends && r.HostID != viewerID {
			ok, err := s.graph.IsFriend(ctx, r.HostID, viewerID)
			if err != nil {
				return nil, fmt.Errorf("friend check: %w", err)
			}
			if !ok {
				continue
			}
		}
		visible = append(visible, r)
	}
	return visible, nil
}

func (s *roundService) ListRoundsHostedBy(ctx context.Context, hostID uuid.UUID) ([]model.Round, error) {
	return s.rounds.ListByHost(ctx, hostID)
}

func (s *roundService) ListRoundsJoinedBy(ctx context.Context, userID uuid.UUID) ([]model.Round, error) {
	return s.rounds.ListJoinedBy(ctx, userID)
}

func (s *roundService) EditRound(ctx context.Context, roundID, actorID uuid.UUID, patch EditRoundPatch) (*model.Round, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if round.Status != model.RoundStatusOpen {
		if round.Status.Terminal() {
			return nil, ErrRoundTerminal
		}
		return nil, ErrRoundNotOpen
	}

	if patch.MaxPlayers != nil {
		if *patch.MaxPlayers < round.AcceptedCount {
			return nil, ErrCapacityBelowAccepted
		}
		round.MaxPlayers = *patch.MaxPlayers
	}
	if patch.CourseName != nil {
		round.CourseName = *patch.CourseName
	}
	if patch.TeeTime != nil {
		round.TeeTime = *patch.TeeTime
	}
	if patch.JoinPolicy != nil {
		if !patch.JoinPolicy.Valid() {
			return nil, fmt.Errorf("invalid join policy")
		}
		round.JoinPolicy = *patch.JoinPolicy
	}
	if patch.Visibility != nil {
		if !patch.Visibility.Valid() {
			return nil, fmt.Errorf("invalid visibility")
		}
		round.Visibility = *patch.Visibility
	}

	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}
	return round, nil
}

// CloseRound stops advertising an open round. Membership operations
// remain legal; closing is informational, not terminal.
func (s *roundService) CloseRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if round.Status.Terminal() {
		return nil, ErrRoundTerminal
	}
	if round.Status != model.RoundStatusOpen {
		return nil, ErrRoundNotOpen
	}

	round.Status = model.RoundStatusClosed
	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}
	return round, nil
}

func (s *roundService) ReopenRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if round.Status.Terminal() {
		return nil, ErrRoundTerminal
	}
	if round.Status != model.RoundStatusClosed {
		return nil, ErrRoundNotClosed
	}

	round.Status = model.RoundStatusOpen
	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}
	return round, nil
}

func (s *roundService) CancelRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if round.Status.Terminal() {
		return nil, ErrRoundTerminal
	}

	round.Status = model.RoundStatusCanceled
	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}

	recipients, err := s.pendingAndAccepted(ctx, roundID)
	if err == nil {
		s.notifier.Publish(ctx, notify.Event{
			Kind:       notify.KindRoundCanceled,
			RoundID:    roundID,
			ActorID:    actorID,
			Recipients: recipients,
			OccurredAt: time.Now(),
		})
	}
	return round, nil
}

func (s *roundService) MarkCompleted(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	unlock := s.locks.Acquire(roundID)
	defer unlock()

	round, err := s.hostRound(ctx, roundID, actorID)
	if err != nil {
		return nil, err
	}
	if round.Status.Terminal() {
		return nil, ErrRoundTerminal
	}

	round.Status = model.RoundStatusCompleted
	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}

	recipients, err := s.acceptedMemberIDs(ctx, roundID)
	if err == nil {
		s.notifier.Publish(ctx, notify.Event{
			Kind:       notify.KindRoundCompleted,
			RoundID:    roundID,
			ActorID:    actorID,
			Recipients: recipients,
			OccurredAt: time.Now(),
		})
	}
	return round, nil
}

func (s *roundService) loadRound(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("find round: %w", err)
	}
	return round, nil
}

func (s *roundService) hostRound(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.HostID != actorID {
		return nil, ErrNotHost
	}
	return round, nil
}

// pendingAndAccepted gathers everyone with a stake in the round:
// accepted, requested, and invited members.
func (s *roundService) pendingAndAccepted(ctx context.Context, roundID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.members.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		switch m.Status {
		case model.MemberStatusAccepted, model.MemberStatusRequested, model.MemberStatusInvited:
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (s *roundService) acceptedMemberIDs(ctx context.Context, roundID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.members.ListByRoundAndStatus(ctx, roundID, model.MemberStatusAccepted)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

var _ RoundService = (*roundService)(nil)
