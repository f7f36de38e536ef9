package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"go.uber.org/zap"
)

func newFriendFixture() (*FriendService, *fakeUserRepo, *fakeFriendshipRepo) {
	users := newFakeUserRepo()
	requests := newFakeFriendshipRepo()
	return NewFriendService(users, requests, zap.NewNop()), users, requests
}

func TestSendRequestRejectsSelfAndDuplicates(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	_, err := svc.SendRequest(ctx, "alice", "alice")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, req.Status)

	// Same direction and reverse direction both collide with the pending one.
	_, err = svc.SendRequest(ctx, "alice", "bob")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
	_, err = svc.SendRequest(ctx, "bob", "alice")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
}

func TestSendRequestAlreadyFriends(t *testing.T) {
	svc, users, _ := newFriendFixture()
	users.put("alice", "Alice", "bob")
	users.put("bob", "Bob", "alice")

	_, err := svc.SendRequest(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFriends)
}

func TestAcceptWritesBothSides(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// Only the receiver may accept.
	_, _, err = svc.Accept(ctx, req.ID, "alice")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	accepted, result, err := svc.Accept(ctx, req.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, models.RequestAccepted, accepted.Status)
	assert.False(t, result.Partial)

	alice, _ := users.GetByID(ctx, "alice")
	bob, _ := users.GetByID(ctx, "bob")
	assert.True(t, alice.HasFriend("bob"))
	assert.True(t, bob.HasFriend("alice"))

	// Accepting again is stale, not a second mutation.
	_, _, err = svc.Accept(ctx, req.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrStale)
}

func TestAcceptSecondWriteFailureIsPartialNotSuccess(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// First AddFriend (owner=sender) succeeds, second (owner=receiver) fails
	// twice: the inline write and the repair retry.
	users.failAddFor["bob"] = 2

	accepted, result, err := svc.Accept(ctx, req.ID, "bob")
	require.Error(t, err)
	assert.True(t, apperrors.IsPartial(err))
	require.NotNil(t, result)
	assert.True(t, result.Partial)
	assert.False(t, result.Repaired)
	require.NotNil(t, accepted)
	assert.Equal(t, models.RequestAccepted, accepted.Status)

	alice, _ := users.GetByID(ctx, "alice")
	bob, _ := users.GetByID(ctx, "bob")
	assert.True(t, alice.HasFriend("bob"))
	assert.False(t, bob.HasFriend("alice"))
}

func TestAcceptFirstWriteFailureKeepsRequestRetryable(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// The very first edge write fails: nothing must commit, and in
	// particular the request must not be burned to accepted.
	users.failAddFor["alice"] = 1

	_, _, err = svc.Accept(ctx, req.ID, "bob")
	require.Error(t, err)
	assert.False(t, apperrors.IsPartial(err))

	pending, err := svc.PendingFor(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1, "request stays pending after a failed accept")

	// Once the store recovers a plain retry finishes the job.
	accepted, result, err := svc.Accept(ctx, req.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, accepted.Status)
	assert.False(t, result.Partial)

	alice, _ := users.GetByID(ctx, "alice")
	bob, _ := users.GetByID(ctx, "bob")
	assert.True(t, alice.HasFriend("bob"))
	assert.True(t, bob.HasFriend("alice"))
}

func TestAcceptPartialRepairedOnRetry(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// Transient failure: the inline write fails, the repair retry succeeds.
	users.failAddFor["bob"] = 1

	_, result, err := svc.Accept(ctx, req.ID, "bob")
	require.Error(t, err)
	assert.True(t, apperrors.IsPartial(err))
	assert.True(t, result.Partial)
	assert.True(t, result.Repaired)

	bob, _ := users.GetByID(ctx, "bob")
	assert.True(t, bob.HasFriend("alice"))
}

func TestRemoveFriendBothSides(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice", "bob")
	users.put("bob", "Bob", "alice")

	result, err := svc.Remove(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, result.Partial)

	alice, _ := users.GetByID(ctx, "alice")
	bob, _ := users.GetByID(ctx, "bob")
	assert.False(t, alice.HasFriend("bob"))
	assert.False(t, bob.HasFriend("alice"))

	_, err = svc.Remove(ctx, "alice", "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveFriendOneSideFailsIsDegraded(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice", "bob")
	users.put("bob", "Bob", "alice")

	users.failRemoveFor["bob"] = 2 // inline write and corrective pass

	result, err := svc.Remove(ctx, "alice", "bob")
	require.Error(t, err)
	assert.True(t, apperrors.IsPartial(err))
	require.NotNil(t, result)
	assert.True(t, result.Partial)
	assert.False(t, result.Repaired)

	alice, _ := users.GetByID(ctx, "alice")
	bob, _ := users.GetByID(ctx, "bob")
	assert.False(t, alice.HasFriend("bob"))
	assert.True(t, bob.HasFriend("alice"))

	// The residue is a one-sided edge; Repair completes it symmetric again.
	repair, err := svc.Repair(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, repair.Repaired)
	alice, _ = users.GetByID(ctx, "alice")
	assert.True(t, alice.HasFriend("bob"))
}

func TestRepairNoopWhenSymmetric(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice", "bob")
	users.put("bob", "Bob", "alice")

	result, err := svc.Repair(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, result.Partial)
	assert.False(t, result.Repaired)
}

func TestRejectAndCancelAuthorization(t *testing.T) {
	svc, users, _ := newFriendFixture()
	ctx := context.Background()
	users.put("alice", "Alice")
	users.put("bob", "Bob")

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Reject(ctx, req.ID, "alice"), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, svc.Cancel(ctx, req.ID, "bob"), apperrors.ErrPermissionDenied)

	require.NoError(t, svc.Cancel(ctx, req.ID, "alice"))
	// A settled request cannot be rejected afterwards.
	assert.ErrorIs(t, svc.Reject(ctx, req.ID, "bob"), apperrors.ErrStale)

	// After cancellation a fresh request goes through.
	_, err = svc.SendRequest(ctx, "bob", "alice")
	require.NoError(t, err)
}
