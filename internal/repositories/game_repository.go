package repositories

import (
	"context"
	"time"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GameRepository defines the interface for wordle game documents. The two
// mutating operations are deliberately narrow: a conditional create and a
// guarded guess commit. Everything racy about the game funnels through
// those two single-document conditions.
type GameRepository interface {
	// CreateIfAbsent writes the initial game document unless one already
	// exists for the id. Returns the surviving document and whether the
	// caller's write was the one that created it.
	CreateIfAbsent(ctx context.Context, game *models.WordleGame) (*models.WordleGame, bool, error)
	GetByID(ctx context.Context, id string) (*models.WordleGame, error)
	// CommitGuess appends a guess and flips the turn in one conditional
	// update that only matches while the game is active and the caller
	// holds the turn. Returns false when the condition did not match.
	CommitGuess(ctx context.Context, gameID, callerID, guess string, won bool) (bool, error)
}

// MongoGameRepository implements GameRepository on the wordleGames
// collection.
type MongoGameRepository struct {
	collection *mongo.Collection
}

// NewMongoGameRepository creates a new MongoGameRepository.
func NewMongoGameRepository(db *mongo.Database) *MongoGameRepository {
	return &MongoGameRepository{collection: db.Collection("wordleGames")}
}

// CreateIfAbsent inserts the game keyed by its id. Both players race this
// after accepting an invite; the duplicate-key loser adopts the winner's
// document (and its secret word) instead of overwriting it.
func (r *MongoGameRepository) CreateIfAbsent(ctx context.Context, game *models.WordleGame) (*models.WordleGame, bool, error) {
	game.CreatedAt = time.Now()
	if game.Player1Guesses == nil {
		game.Player1Guesses = []string{}
	}
	if game.Player2Guesses == nil {
		game.Player2Guesses = []string{}
	}
	_, err := r.collection.InsertOne(ctx, game)
	if err == nil {
		return game, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	existing, err := r.GetByID(ctx, game.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves a game by id.
func (r *MongoGameRepository) GetByID(ctx context.Context, id string) (*models.WordleGame, error) {
	var game models.WordleGame
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&game)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// CommitGuess pushes the guess onto the caller's list and hands the turn to
// the opponent. The filter carries status=active and current_player=caller,
// so an out-of-turn or post-completion submission matches nothing and the
// document is untouched.
func (r *MongoGameRepository) CommitGuess(ctx context.Context, gameID, callerID, guess string, won bool) (bool, error) {
	game, err := r.GetByID(ctx, gameID)
	if err != nil {
		return false, err
	}
	guessField := "player1_guesses"
	opponent := game.Player2
	if callerID == game.Player2 {
		guessField = "player2_guesses"
		opponent = game.Player1
	}

	// A winning guess freezes current_player where it is; otherwise the
	// turn flips to the opponent.
	set := bson.M{"current_player": opponent}
	if won {
		set = bson.M{"status": models.GameCompleted, "winner": callerID}
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": gameID, "status": models.GameActive, "current_player": callerID},
		bson.M{"$push": bson.M{guessField: guess}, "$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
