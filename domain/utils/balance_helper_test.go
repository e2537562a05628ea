package utils

import (
	"context"
	"errors"
	"testing"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRecordBalanceChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)

	entry := &entities.BalanceHistory{
		UserID:          1,
		BalanceBefore:   100,
		BalanceAfter:    50,
		ChangeAmount:    -50,
		TransactionType: entities.TransactionTypeBid,
	}

	repo.On("Record", ctx, entry).Return(nil)
	publisher.On("Publish", events.BalanceChangeEvent{
		UserID:          1,
		OldBalance:      100,
		NewBalance:      50,
		TransactionType: entities.TransactionTypeBid,
		ChangeAmount:    -50,
	}).Return(errors.New("bus down"))

	// publish failures are logged, not returned
	assert.NoError(t, RecordBalanceChange(ctx, repo, publisher, entry))

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRecordBalanceChange_RejectsInconsistentEntry(t *testing.T) {
	t.Parallel()

	repo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)

	err := RecordBalanceChange(context.Background(), repo, publisher, &entities.BalanceHistory{
		BalanceBefore: 100,
		BalanceAfter:  10,
		ChangeAmount:  -50,
	})
	assert.ErrorIs(t, err, entities.ErrInvariantViolation)

	repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRecordBalanceChange_RepositoryError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)

	repo.On("Record", ctx, mock.Anything).Return(errors.New("disk full"))

	err := RecordBalanceChange(ctx, repo, publisher, &entities.BalanceHistory{
		BalanceBefore: 0,
		BalanceAfter:  10,
		ChangeAmount:  10,
	})
	assert.ErrorContains(t, err, "failed to record balance history")
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}
