package model

import (
	"time"

	"github.com/google/uuid"
)

// FriendLink is an undirected friendship edge. Rows are stored with
// UserA < UserB (byte order) so each pair appears exactly once; use
// OrderFriendPair before reading or writing.
type FriendLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserA     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_links_pair" json:"user_a"`
	UserB     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_links_pair" json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

func (FriendLink) TableName() string { return "friend_links" }

// OrderFriendPair returns the pair in canonical storage order.
func OrderFriendPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	for i := range x {
		if x[i] < y[i] {
			return x, y
		}
		if x[i] > y[i] {
			return y, x
		}
	}
	return x, y
}
