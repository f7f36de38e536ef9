package models

import "time"

// User is the profile document stored in MongoDB, keyed by the Firebase UID.
// The friends list is stored redundantly on both endpoints of every edge;
// the friend service owns keeping the two sides in agreement.
type User struct {
	ID          string    `json:"id" bson:"_id"` // Firebase UID
	DisplayName string    `json:"display_name" bson:"display_name"`
	Email       string    `json:"email" bson:"email"`
	Friends     []string  `json:"friends" bson:"friends"`
	GamesWon    int       `json:"games_won" bson:"games_won"`
	GamesPlayed int       `json:"games_played" bson:"games_played"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// HasFriend reports whether id is in the profile's friend set.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// RegisterRequest defines the request body for creating a profile after
// Firebase sign-up. The UID comes from the verified ID token, never the body.
type RegisterRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
}

// UpdateProfileRequest defines the request body for profile updates.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
}
