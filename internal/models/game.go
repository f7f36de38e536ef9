package models

import "time"

// Game statuses. A game moves from active to completed exactly once, on a
// correct guess. There is no turn limit and no resignation, so an abandoned
// game simply stays active; this mirrors the product behavior and is
// intentional, not an oversight.
const (
	GameActive    = "active"
	GameCompleted = "completed"
)

// WordleGame is the shared game document, keyed by the game id allocated
// when the invite was accepted. The secret word lives only in this document
// and must never be sent to clients while the game is active.
type WordleGame struct {
	ID             string    `json:"id" bson:"_id"`
	Word           string    `json:"word" bson:"word"`
	Player1        string    `json:"player1" bson:"player1"`
	Player2        string    `json:"player2" bson:"player2"`
	CurrentPlayer  string    `json:"current_player" bson:"current_player"`
	Player1Guesses []string  `json:"player1_guesses" bson:"player1_guesses"`
	Player2Guesses []string  `json:"player2_guesses" bson:"player2_guesses"`
	Status         string    `json:"status" bson:"status"`
	Winner         string    `json:"winner,omitempty" bson:"winner,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// GuessesOf returns the guess list belonging to uid.
func (g *WordleGame) GuessesOf(uid string) []string {
	if uid == g.Player1 {
		return g.Player1Guesses
	}
	if uid == g.Player2 {
		return g.Player2Guesses
	}
	return nil
}

// IsPlayer reports whether uid holds one of the two player slots.
func (g *WordleGame) IsPlayer(uid string) bool {
	return uid == g.Player1 || uid == g.Player2
}

// GuessRow is one submitted guess with its per-letter feedback.
type GuessRow struct {
	Player   string   `json:"player"`
	Word     string   `json:"word"`
	Feedback []string `json:"feedback"` // "exact" | "present" | "absent"
}

// GameView is the client-facing projection of a game. Word is empty while
// the game is active and revealed once completed.
type GameView struct {
	ID            string     `json:"id"`
	Player1       string     `json:"player1"`
	Player2       string     `json:"player2"`
	CurrentPlayer string     `json:"current_player"`
	Rows          []GuessRow `json:"rows"`
	Status        string     `json:"status"`
	Winner        string     `json:"winner,omitempty"`
	Word          string     `json:"word,omitempty"`
}

// GuessRequest defines the request body for submitting a guess.
type GuessRequest struct {
	Word string `json:"word" validate:"required"`
}
