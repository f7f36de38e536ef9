package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// Coordinator drives the invite/game state machine:
//
//	NoInvite -> Pending -> Accepted -> (game active) -> (game completed) -> invite deleted
//	             |  \-> Rejected
//	             \--> Cancelled (sender)
//
// CurrentState re-derives the whole view from storage on every call, so
// clients can poll it; whichever party scans first garbage-collects stale
// accepted invites whose game already finished.
type Coordinator struct {
	invites  repositories.InviteRepository
	games    repositories.GameRepository
	presence repositories.PresenceRepository
	logger   *zap.Logger
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(invites repositories.InviteRepository, games repositories.GameRepository, presence repositories.PresenceRepository, logger *zap.Logger) *Coordinator {
	return &Coordinator{invites: invites, games: games, presence: presence, logger: logger}
}

// CurrentState is one coordinator tick for uid: surface the active game if
// an accepted invite references one, cleaning up completed leftovers along
// the way; otherwise surface the earliest pending incoming invite; else
// idle. Every recoverable emptiness is a state, not an error.
func (c *Coordinator) CurrentState(ctx context.Context, uid string) (*models.CoordinatorState, error) {
	accepted, err := c.invites.FindAcceptedInvolving(ctx, uid)
	if err != nil {
		return nil, err
	}
	for i := range accepted {
		invite := accepted[i]
		game, err := c.games.GetByID(ctx, invite.GameID)
		if errors.Is(err, apperrors.ErrNotFound) {
			// Accepted but not yet lazily created: this IS the current
			// game; the engine will create it on first load.
			return &models.CoordinatorState{
				State:  models.CoordinatorInGame,
				Invite: &invite,
			}, nil
		}
		if err != nil {
			return nil, err
		}
		if game.Status == models.GameCompleted {
			// Stale: whoever notices first deletes the invite.
			if err := c.invites.DeleteByGameID(ctx, invite.GameID); err != nil {
				c.logger.Warn("stale invite cleanup failed",
					zap.String("invite", invite.ID), zap.Error(err))
			}
			continue
		}
		return &models.CoordinatorState{
			State:  models.CoordinatorInGame,
			Invite: &invite,
			Game:   GameViewFor(game, uid),
		}, nil
	}

	pending, err := c.invites.PendingFor(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return &models.CoordinatorState{
			State:  models.CoordinatorIncoming,
			Invite: &pending[0],
		}, nil
	}
	return &models.CoordinatorState{State: models.CoordinatorIdle}, nil
}

// SendInvite creates a pending invite from sender to receiver. Both
// parties must be online and flagged available; a pending invite between
// the pair in either direction blocks a duplicate.
func (c *Coordinator) SendInvite(ctx context.Context, senderID, receiverID string) (*models.GameInvite, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot invite yourself", apperrors.ErrInvalidInput)
	}
	for _, uid := range []string{senderID, receiverID} {
		record, err := c.presence.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		if !record.IsOnline || !record.IsAvailable {
			return nil, fmt.Errorf("%w: %s is not available for a game", apperrors.ErrPermissionDenied, uid)
		}
	}
	if _, err := c.invites.FindPendingBetween(ctx, senderID, receiverID); err == nil {
		return nil, apperrors.ErrDuplicateRequest
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	invite := &models.GameInvite{
		SenderID:   senderID,
		ReceiverID: receiverID,
		GameType:   "wordle",
	}
	if err := c.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// AcceptInvite marks the invite accepted and binds a freshly allocated
// game id. The id is a v4 uuid, unpredictable and collision-resistant;
// the game document itself is NOT created here — creation is lazy and
// idempotent in the game engine, so two clients racing to initialize
// cannot produce two different seeds.
func (c *Coordinator) AcceptInvite(ctx context.Context, inviteID, callerID string) (*models.GameInvite, error) {
	invite, err := c.invites.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.ReceiverID != callerID {
		return nil, apperrors.ErrPermissionDenied
	}
	if invite.Status != models.InvitePending {
		return nil, apperrors.ErrStale
	}
	gameID := uuid.NewString()
	if err := c.invites.Accept(ctx, inviteID, gameID); err != nil {
		return nil, err
	}
	invite.Status = models.InviteAccepted
	invite.GameID = gameID
	return invite, nil
}

// RejectInvite marks the invite rejected. Receiver only.
func (c *Coordinator) RejectInvite(ctx context.Context, inviteID, callerID string) error {
	return c.finishInvite(ctx, inviteID, callerID, models.InviteRejected, false)
}

// CancelInvite marks the invite cancelled. Sender only.
func (c *Coordinator) CancelInvite(ctx context.Context, inviteID, callerID string) error {
	return c.finishInvite(ctx, inviteID, callerID, models.InviteCancelled, true)
}

func (c *Coordinator) finishInvite(ctx context.Context, inviteID, callerID, status string, bySender bool) error {
	invite, err := c.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	owner := invite.ReceiverID
	if bySender {
		owner = invite.SenderID
	}
	if owner != callerID {
		return apperrors.ErrPermissionDenied
	}
	return c.invites.UpdateStatus(ctx, inviteID, status)
}

// CloseGame deletes the invite bound to gameID, whichever party calls it.
// The deletion completes before this returns, so the peer's next scan
// cannot resurface the finished game.
func (c *Coordinator) CloseGame(ctx context.Context, callerID, gameID string) error {
	game, err := c.games.GetByID(ctx, gameID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if game != nil && !game.IsPlayer(callerID) {
		return apperrors.ErrPermissionDenied
	}
	return c.invites.DeleteByGameID(ctx, gameID)
}
