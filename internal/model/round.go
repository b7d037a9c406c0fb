package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoundStatus string

const (
	RoundStatusOpen      RoundStatus = "open"
	RoundStatusClosed    RoundStatus = "closed"
	RoundStatusCanceled  RoundStatus = "canceled"
	RoundStatusCompleted RoundStatus = "completed"
)

// Terminal reports whether the round accepts no further mutations.
func (s RoundStatus) Terminal() bool {
	return s == RoundStatusCanceled || s == RoundStatusCompleted
}

type JoinPolicy string

const (
	JoinPolicyInstant  JoinPolicy = "instant"
	JoinPolicyApproval JoinPolicy = "approval"
)

func (p JoinPolicy) Valid() bool {
	return p == JoinPolicyInstant || p == JoinPolicyApproval
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityFriends
}

// Round is a scheduled tee-time event. The host counts toward capacity:
// a fresh round starts with AcceptedCount = 1 and the host never has a
// Membership row of their own.
type Round struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	HostID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"host_id"`
	Host          User           `gorm:"foreignKey:HostID" json:"host,omitempty"`
	CourseName    string         `gorm:"type:varchar(120);not null" json:"course_name"`
	TeeTime       time.Time      `gorm:"not null" json:"tee_time"`
	Status        RoundStatus    `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	JoinPolicy    JoinPolicy     `gorm:"type:varchar(16);not null;default:'approval'" json:"join_policy"`
	Visibility    Visibility     `gorm:"type:varchar(16);not null;default:'public'" json:"visibility"`
	MaxPlayers    int            `gorm:"not null;check:max_players >= 1" json:"max_players"`
	AcceptedCount int            `gorm:"not null;default:1;check:accepted_count <= max_players" json:"accepted_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Members []Membership `gorm:"foreignKey:RoundID" json:"members,omitempty"`
}

func (Round) TableName() string { return "rounds" }

func (r *Round) SpotsRemaining() int { return r.MaxPlayers - r.AcceptedCount }
