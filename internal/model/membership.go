package model

import (
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberStatusRequested MemberStatus = "requested"
	MemberStatusInvited   MemberStatus = "invited"
	MemberStatusAccepted  MemberStatus = "accepted"
	MemberStatusDeclined  MemberStatus = "declined"
	MemberStatusRemoved   MemberStatus = "removed"
	MemberStatusLeft      MemberStatus = "left"
)

// HoldsSeat reports whether the status occupies a capacity slot.
// Only accepted members consume seats; requests and invites do not.
func (s MemberStatus) HoldsSeat() bool { return s == MemberStatusAccepted }

// Rejoinable reports whether a user with this status may request or be
// invited again. History is not held against them.
func (s MemberStatus) Rejoinable() bool {
	return s == MemberStatusDeclined || s == MemberStatusRemoved || s == MemberStatusLeft
}

// Membership is the single status record for a (round, user) pair.
// Transitions update this row in place; a user never has two concurrent
// statuses in the same round. Canceling a request deletes the row, which
// is equivalent to the user never having interacted with the round.
type Membership struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoundID   uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_round_user" json:"round_id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_round_user" json:"user_id"`
	User      User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    MemberStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	InvitedBy *uuid.UUID   `gorm:"type:uuid" json:"invited_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Membership) TableName() string { return "memberships" }
