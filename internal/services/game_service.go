package services

import (
	"context"
	"math/rand"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"github.com/wordmate-app/backend/internal/wordle"
	"go.uber.org/zap"
)

// GameService runs wordle matches on top of the accepted-invite contract.
// Game documents are created lazily: the first player to load a known game
// id writes the initial document through a conditional create, the second
// adopts whatever the first wrote. Guesses commit through a guarded update
// so turn order and the completed state are enforced by the store, not by
// trusting the client.
//
// There is no guess limit, no timer and no resignation: a game that both
// players walk away from stays active indefinitely. That is inherited
// product behavior, kept on purpose.
type GameService struct {
	games  repositories.GameRepository
	users  repositories.UserRepository
	rng    *rand.Rand
	logger *zap.Logger
}

// NewGameService creates a new GameService.
func NewGameService(games repositories.GameRepository, users repositories.UserRepository, rng *rand.Rand, logger *zap.Logger) *GameService {
	return &GameService{games: games, users: users, rng: rng, logger: logger}
}

// Ensure loads the game, creating it if this caller is first. The creator
// picks the secret and takes the first turn; the loser of the create race
// plays against the winner's word.
func (s *GameService) Ensure(ctx context.Context, gameID, callerID, opponentID string) (*models.GameView, error) {
	candidate := &models.WordleGame{
		ID:            gameID,
		Word:          wordle.PickWord(s.rng),
		Player1:       callerID,
		Player2:       opponentID,
		CurrentPlayer: callerID,
		Status:        models.GameActive,
	}
	game, created, err := s.games.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("game initialized",
			zap.String("game", gameID), zap.String("creator", callerID))
	}
	if !game.IsPlayer(callerID) {
		return nil, apperrors.ErrPermissionDenied
	}
	return GameViewFor(game, callerID), nil
}

// Get returns the caller's view of a game.
func (s *GameService) Get(ctx context.Context, gameID, callerID string) (*models.GameView, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsPlayer(callerID) {
		return nil, apperrors.ErrPermissionDenied
	}
	return GameViewFor(game, callerID), nil
}

// Guess submits a guess for the caller. Validation order: membership,
// input shape, terminal state, turn. The commit itself re-checks turn and
// status in the store filter, so a concurrent submission loses cleanly.
func (s *GameService) Guess(ctx context.Context, gameID, callerID, word string) (*models.GameView, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsPlayer(callerID) {
		return nil, apperrors.ErrPermissionDenied
	}
	guess, err := wordle.Normalize(word)
	if err != nil {
		return nil, err
	}
	if game.Status == models.GameCompleted {
		return nil, apperrors.ErrStale
	}
	if game.CurrentPlayer != callerID {
		return nil, apperrors.ErrNotYourTurn
	}

	won := wordle.IsWin(game.Word, guess)
	committed, err := s.games.CommitGuess(ctx, gameID, callerID, guess, won)
	if err != nil {
		return nil, err
	}
	if !committed {
		// Lost a race: someone else moved or the game completed between
		// our read and the commit. Re-read to report the right condition.
		fresh, gerr := s.games.GetByID(ctx, gameID)
		if gerr != nil {
			return nil, gerr
		}
		if fresh.Status == models.GameCompleted {
			return nil, apperrors.ErrStale
		}
		return nil, apperrors.ErrNotYourTurn
	}

	if won {
		opponent := game.Player2
		if callerID == game.Player2 {
			opponent = game.Player1
		}
		if err := s.users.RecordGameResult(ctx, callerID, opponent); err != nil {
			s.logger.Warn("stats update failed after win",
				zap.String("game", gameID), zap.Error(err))
		}
	}

	fresh, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return GameViewFor(fresh, callerID), nil
}

// GameViewFor projects a game document for one player. Guess rows carry
// per-letter feedback for both players, but the secret is redacted until
// the game completes.
func GameViewFor(game *models.WordleGame, viewerID string) *models.GameView {
	view := &models.GameView{
		ID:            game.ID,
		Player1:       game.Player1,
		Player2:       game.Player2,
		CurrentPlayer: game.CurrentPlayer,
		Status:        game.Status,
		Winner:        game.Winner,
		Rows:          []models.GuessRow{},
	}
	for _, g := range game.Player1Guesses {
		view.Rows = append(view.Rows, models.GuessRow{
			Player: game.Player1, Word: g, Feedback: wordle.Score(game.Word, g),
		})
	}
	for _, g := range game.Player2Guesses {
		view.Rows = append(view.Rows, models.GuessRow{
			Player: game.Player2, Word: g, Feedback: wordle.Score(game.Word, g),
		})
	}
	if game.Status == models.GameCompleted {
		view.Word = game.Word
	}
	return view
}
