package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// FriendService owns the friend graph: the request workflow and the
// redundant two-sided friends lists. The store offers no transaction across
// the two profile documents, so every symmetric mutation here is an
// optimistic dual write with detect-and-repair. A one-sided commit is
// reported as a PartialError, never as plain success.
type FriendService struct {
	users    repositories.UserRepository
	requests repositories.FriendshipRepository
	logger   *zap.Logger
}

// NewFriendService creates a new FriendService.
func NewFriendService(users repositories.UserRepository, requests repositories.FriendshipRepository, logger *zap.Logger) *FriendService {
	return &FriendService{users: users, requests: requests, logger: logger}
}

// SendRequest creates a pending friend request from sender to receiver.
// The duplicate check reads both directions before inserting; a concurrent
// sender can still race past it, which matches the platform contract.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", apperrors.ErrInvalidInput)
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}
	if sender.HasFriend(receiverID) {
		return nil, apperrors.ErrAlreadyFriends
	}
	if _, err := s.requests.FindPendingBetween(ctx, senderID, receiverID); err == nil {
		return nil, apperrors.ErrDuplicateRequest
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	req := &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// PendingFor lists pending requests addressed to a user.
func (s *FriendService) PendingFor(ctx context.Context, uid string) ([]models.FriendRequest, error) {
	return s.requests.PendingFor(ctx, uid)
}

// Accept adds each party to the other's friend set and then marks the
// request accepted. The edges are written first, while the request is still
// pending: a failure before anything committed leaves the request pending
// and the whole accept retryable, and "$addToSet" makes the retry
// idempotent. A one-sided edge commit is a PartialError after a best-effort
// repair attempt.
func (s *FriendService) Accept(ctx context.Context, requestID, callerID string) (*models.FriendRequest, *models.RemoveFriendResult, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.ReceiverID != callerID {
		return nil, nil, apperrors.ErrPermissionDenied
	}
	if req.Status != models.RequestPending {
		return nil, nil, apperrors.ErrStale
	}

	if err := s.users.AddFriend(ctx, req.SenderID, req.ReceiverID); err != nil {
		// Nothing committed and the request is still pending; the caller
		// simply retries the accept.
		return nil, nil, fmt.Errorf("accept: %w", err)
	}

	result := &models.RemoveFriendResult{}
	var partial *apperrors.PartialError
	if err := s.users.AddFriend(ctx, req.ReceiverID, req.SenderID); err != nil {
		partial = &apperrors.PartialError{
			Op:       "accept",
			DoneID:   req.SenderID,
			FailedID: req.ReceiverID,
			Cause:    err,
		}
		partial.Repaired = s.repairAdd(ctx, req.SenderID, req.ReceiverID)
		result.Partial = true
		result.Repaired = partial.Repaired
		result.Detail = partial.Error()
		s.logger.Warn("friend accept partially applied",
			zap.String("request", requestID), zap.Bool("repaired", partial.Repaired), zap.Error(err))
	}

	if err := s.requests.UpdateStatus(ctx, requestID, models.RequestAccepted); err != nil {
		// Edges (or half of one) are in place but the request stayed
		// pending; a retried accept converges because every write here is
		// idempotent.
		if partial != nil {
			return req, result, partial
		}
		return nil, nil, err
	}
	req.Status = models.RequestAccepted

	if partial != nil {
		return req, result, partial
	}
	return req, result, nil
}

// Reject marks the request rejected. Receiver only; no graph mutation.
func (s *FriendService) Reject(ctx context.Context, requestID, callerID string) error {
	return s.finishRequest(ctx, requestID, callerID, models.RequestRejected, false)
}

// Cancel marks the request cancelled. Sender only; no graph mutation.
func (s *FriendService) Cancel(ctx context.Context, requestID, callerID string) error {
	return s.finishRequest(ctx, requestID, callerID, models.RequestCancelled, true)
}

func (s *FriendService) finishRequest(ctx context.Context, requestID, callerID, status string, bySender bool) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	owner := req.ReceiverID
	if bySender {
		owner = req.SenderID
	}
	if owner != callerID {
		return apperrors.ErrPermissionDenied
	}
	return s.requests.UpdateStatus(ctx, requestID, status)
}

// Remove deletes the friendship edge from both profiles. Both sides are
// attempted independently: one side failing does not stop the other. A
// one-sided outcome runs a corrective pass and is reported as degraded
// success, distinctly from full success.
func (s *FriendService) Remove(ctx context.Context, callerID, friendID string) (*models.RemoveFriendResult, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.HasFriend(friendID) {
		return nil, apperrors.ErrNotFound
	}

	errA := s.users.RemoveFriend(ctx, callerID, friendID)
	errB := s.users.RemoveFriend(ctx, friendID, callerID)

	result := &models.RemoveFriendResult{}
	switch {
	case errA == nil && errB == nil:
		return result, nil
	case errA != nil && errB != nil:
		return nil, fmt.Errorf("remove friend: %w", errA)
	default:
		done, failed := callerID, friendID
		cause := errB
		if errA != nil {
			done, failed = friendID, callerID
			cause = errA
		}
		partial := &apperrors.PartialError{Op: "remove", DoneID: done, FailedID: failed, Cause: cause}
		partial.Repaired = s.repairRemove(ctx, callerID, friendID)
		result.Partial = true
		result.Repaired = partial.Repaired
		result.Detail = partial.Error()
		s.logger.Warn("friend removal partially applied",
			zap.String("caller", callerID), zap.String("friend", friendID),
			zap.Bool("repaired", partial.Repaired), zap.Error(cause))
		return result, partial
	}
}

// Repair is the idempotent "make both sides agree" operation, callable on
// its own. An edge asserted by an accepted pending-free pair should exist
// on both sides; residue from a half-finished removal should exist on
// neither. Ground truth is the request history: if the two users have an
// accepted friendship (either side lists the other AND no removal won),
// the union view is applied; the conservative rule used here is: if either
// side lists the other, complete the edge on both sides. Removal residue
// is cleaned through Remove's own corrective pass instead.
func (s *FriendService) Repair(ctx context.Context, a, b string) (*models.RemoveFriendResult, error) {
	profileA, err := s.users.GetByID(ctx, a)
	if err != nil {
		return nil, err
	}
	profileB, err := s.users.GetByID(ctx, b)
	if err != nil {
		return nil, err
	}

	result := &models.RemoveFriendResult{}
	aHasB, bHasA := profileA.HasFriend(b), profileB.HasFriend(a)
	if aHasB == bHasA {
		return result, nil // already symmetric
	}
	if !aHasB {
		err = s.users.AddFriend(ctx, a, b)
	} else {
		err = s.users.AddFriend(ctx, b, a)
	}
	if err != nil {
		result.Partial = true
		result.Detail = fmt.Sprintf("repair incomplete: %v", err)
		return result, &apperrors.PartialError{Op: "repair", DoneID: a, FailedID: b, Cause: err}
	}
	result.Repaired = true
	return result, nil
}

// repairAdd retries the missing half of an accept. Reports success.
func (s *FriendService) repairAdd(ctx context.Context, doneID, failedID string) bool {
	return s.users.AddFriend(ctx, failedID, doneID) == nil
}

// repairRemove re-reads both profiles and pulls any residual reference.
func (s *FriendService) repairRemove(ctx context.Context, a, b string) bool {
	ok := true
	if profile, err := s.users.GetByID(ctx, a); err == nil && profile.HasFriend(b) {
		ok = s.users.RemoveFriend(ctx, a, b) == nil && ok
	}
	if profile, err := s.users.GetByID(ctx, b); err == nil && profile.HasFriend(a) {
		ok = s.users.RemoveFriend(ctx, b, a) == nil && ok
	}
	return ok
}
