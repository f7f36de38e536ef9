package models

import "time"

// Friend request lifecycle statuses.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// FriendRequest represents a proposed friendship edge between two users,
// stored in the friendRequests collection. At most one pending request
// should exist per pair in either direction; this is enforced only by a
// pre-check before insert, so duplicates are a known possible anomaly.
type FriendRequest struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	Status     string    `json:"status" bson:"status"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// CreateFriendRequest defines the request body for sending a friend request.
type CreateFriendRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

// RemoveFriendResult reports how a friend removal (or accept) landed.
// Partial is true when only one side's profile update committed; callers
// must surface this distinctly from full success.
type RemoveFriendResult struct {
	Partial  bool   `json:"partial"`
	Repaired bool   `json:"repaired"`
	Detail   string `json:"detail,omitempty"`
}
