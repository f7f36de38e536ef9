package models

import "time"

// Game invite lifecycle statuses. Accepted is terminal for the invite
// itself; the invite document is deleted once the referenced game is over.
const (
	InvitePending   = "pending"
	InviteAccepted  = "accepted"
	InviteRejected  = "rejected"
	InviteCancelled = "cancelled"
)

// GameInvite represents a proposed game between two users, stored in the
// gameInvites collection. GameID is set when the invite is accepted and
// points at a wordleGames document that may not exist yet (creation is
// lazy, done by whichever player's client looks first).
type GameInvite struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	GameType   string    `json:"game_type" bson:"game_type"`
	Status     string    `json:"status" bson:"status"`
	GameID     string    `json:"game_id,omitempty" bson:"game_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Opponent returns the other party of the invite, or "" if uid is neither.
func (i *GameInvite) Opponent(uid string) string {
	switch uid {
	case i.SenderID:
		return i.ReceiverID
	case i.ReceiverID:
		return i.SenderID
	}
	return ""
}

// CreateInviteRequest defines the request body for sending a game invite.
type CreateInviteRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

// Coordinator view states for GET /games/current.
const (
	CoordinatorIdle     = "idle"
	CoordinatorIncoming = "incoming"
	CoordinatorInGame   = "in_game"
)

// CoordinatorState is the derived view of the invite/game state machine for
// one user: either nothing going on, an incoming pending invite, or an
// accepted invite with its (possibly not-yet-created) game.
type CoordinatorState struct {
	State  string      `json:"state"`
	Invite *GameInvite `json:"invite,omitempty"`
	Game   *GameView   `json:"game,omitempty"`
}
