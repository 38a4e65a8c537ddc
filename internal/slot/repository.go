package slot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound  = errors.New("slot not found")
	ErrDuplicateSlot = errors.New("slot already exists for doctor, date and time slot")

	// ErrStatusConflict is returned by conditional status writes when the
	// slot exists but its current status no longer matches the expected
	// one. The service layer translates it into an operation-specific
	// conflict error.
	ErrStatusConflict = errors.New("slot status conflict")
)

// Repository contains all store interactions needed by the service.
// Status writes are conditional on the expected current status so the
// precondition established by a read is re-checked at commit time.
type Repository interface {
	Insert(ctx context.Context, s *Slot) (*Slot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	Exists(ctx context.Context, doctorID uuid.UUID, date time.Time, ts TimeSlot) (bool, error)

	// UpdateStatus flips id from one status to another in a single
	// compare-and-set write. ErrSlotNotFound if the row is gone,
	// ErrStatusConflict if it exists with a different status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Slot, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// TransferBooking moves booked status from oldID to newID in one
	// transaction: oldID Booked -> Available, newID Available -> Booked.
	// Neither write is applied unless both succeed.
	TransferBooking(ctx context.Context, oldID, newID uuid.UUID) (old, updated *Slot, err error)

	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error)
	FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error)
	FindByDoctorDateRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Slot, error)
	FindBySpecializationAndDate(ctx context.Context, spec Specialization, date time.Time) ([]Slot, error)
	FindBySpecializationDateRange(ctx context.Context, spec Specialization, start, end time.Time) ([]Slot, error)
	FindAllAvailable(ctx context.Context) ([]Slot, error)

	// RetirePastSlots marks every Available slot dated before the given
	// day as Unavailable and reports how many rows changed.
	RetirePastSlots(ctx context.Context, before time.Time) (int64, error)
}
