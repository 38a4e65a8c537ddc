package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSlot(t *testing.T, repo *MemoryRepository, status Status) *Slot {
	t.Helper()

	s, err := repo.Insert(context.Background(), &Slot{
		DoctorID:       uuid.New(),
		DoctorName:     "Dr. Mem",
		Specialization: SpecGeneral,
		Date:           time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		TimeSlot:       TimeSlot0900,
		Status:         status,
	})
	require.NoError(t, err)
	return s
}

func TestMemoryInsertRejectsDuplicateWindow(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	s := seedSlot(t, repo, StatusAvailable)

	_, err := repo.Insert(ctx, &Slot{
		DoctorID:       s.DoctorID,
		DoctorName:     s.DoctorName,
		Specialization: s.Specialization,
		Date:           s.Date,
		TimeSlot:       s.TimeSlot,
		Status:         StatusAvailable,
	})
	assert.ErrorIs(t, err, ErrDuplicateSlot)
}

func TestMemoryUpdateStatusCompareAndSet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	s := seedSlot(t, repo, StatusAvailable)

	updated, err := repo.UpdateStatus(ctx, s.ID, StatusAvailable, StatusBooked)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, updated.Status)

	_, err = repo.UpdateStatus(ctx, s.ID, StatusAvailable, StatusBooked)
	assert.ErrorIs(t, err, ErrStatusConflict, "stale expected status must not win")

	_, err = repo.UpdateStatus(ctx, uuid.New(), StatusAvailable, StatusBooked)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestMemoryTransferBookingAppliesNothingOnConflict(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	oldSlot := seedSlot(t, repo, StatusBooked)
	newSlot := seedSlot(t, repo, StatusBooked) // conflict: not Available

	_, _, err := repo.TransferBooking(ctx, oldSlot.ID, newSlot.ID)
	assert.ErrorIs(t, err, ErrStatusConflict)

	gotOld, err := repo.GetByID(ctx, oldSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, gotOld.Status, "old half must not be applied alone")
}
