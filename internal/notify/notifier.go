package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMemberRequested Kind = "member_requested"
	KindRequestCanceled Kind = "request_canceled"
	KindMemberAccepted  Kind = "member_accepted"
	KindMemberDeclined  Kind = "member_declined"
	KindMemberInvited   Kind = "member_invited"
	KindInviteAccepted  Kind = "invite_accepted"
	KindInviteDeclined  Kind = "invite_declined"
	KindMemberLeft      Kind = "member_left"
	KindMemberRemoved   Kind = "member_removed"
	KindRoundCanceled   Kind = "round_canceled"
	KindRoundCompleted  Kind = "round_completed"
)

// Event describes a committed state change. SubjectID is the member the
// event is about; it is zero for round-level events.
type Event struct {
	Kind       Kind        `json:"kind"`
	RoundID    uuid.UUID   `json:"round_id"`
	ActorID    uuid.UUID   `json:"actor_id"`
	SubjectID  uuid.UUID   `json:"subject_id,omitempty"`
	Recipients []uuid.UUID `json:"recipients,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Notifier delivers events to whatever fans them out to devices.
// Publish is fire-and-forget: implementations must not block the caller
// on delivery and must never fail a committed operation. Callers publish
// only after the state change is durably committed.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}
