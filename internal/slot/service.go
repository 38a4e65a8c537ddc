package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinistack/slot-engine/internal/redis"
)

var (
	ErrSlotNotAvailable = errors.New("slot is not available for booking")
	ErrSlotNotBooked    = errors.New("slot is not booked")
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
	ErrNoAvailability   = errors.New("no available slots found")
	ErrDoctorNotFound   = errors.New("no slots found for doctor")
	ErrInvalidDateRange = errors.New("end date cannot be before start date")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
	}
}

// CreateSlots publishes availability for a doctor. Requested windows
// that already have a live slot are skipped silently, so resubmitting
// the same request is a no-op for every already-present window. A
// write failure aborts the remainder of the batch; slots committed
// before the failure stay committed.
func (s *Service) CreateSlots(ctx context.Context, doctorID uuid.UUID, doctorName string, spec Specialization, windows []SlotWindow) ([]Slot, error) {
	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Int("requested", len(windows)).
		Msg("creating availability slots")

	var created []Slot
	for _, w := range windows {
		date := NormalizeDate(w.Date)

		exists, err := s.repo.Exists(ctx, doctorID, date, w.TimeSlot)
		if err != nil {
			return created, fmt.Errorf("check existing slot: %w", err)
		}
		if exists {
			s.log.Debug().
				Str("doctor_id", doctorID.String()).
				Time("date", date).
				Str("time_slot", string(w.TimeSlot)).
				Msg("duplicate slot skipped")
			continue
		}

		newSlot, err := s.repo.Insert(ctx, &Slot{
			DoctorID:       doctorID,
			DoctorName:     doctorName,
			Specialization: spec,
			Date:           date,
			TimeSlot:       w.TimeSlot,
			Status:         StatusAvailable,
		})
		if err != nil {
			if errors.Is(err, ErrDuplicateSlot) {
				// Lost the check-then-insert race to another writer; the
				// window is live either way.
				continue
			}
			return created, fmt.Errorf("save slot: %w", err)
		}

		created = append(created, *newSlot)
	}

	return created, nil
}

// Book flips an Available slot to Booked. A per-slot lock serializes
// competing bookings; the conditional write underneath re-checks the
// status at commit time, so of N racing callers exactly one wins and
// the rest see a conflict.
func (s *Service) Book(ctx context.Context, id uuid.UUID) (*Slot, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusAvailable {
		return nil, ErrSlotNotAvailable
	}

	var booked *Slot
	err = s.locker.WithSlotLock(ctx, id, func(lockCtx context.Context) error {
		updated, err := s.repo.UpdateStatus(lockCtx, id, StatusAvailable, StatusBooked)
		if err != nil {
			return err
		}
		booked = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrSlotNotAvailable
		}
		return nil, err
	}

	s.log.Info().Str("slot_id", id.String()).Msg("slot booked")
	return booked, nil
}

// Cancel flips a Booked slot back to Available.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Slot, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusBooked {
		return nil, ErrSlotNotBooked
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusBooked, StatusAvailable)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrSlotNotBooked
		}
		return nil, err
	}

	s.log.Info().Str("slot_id", id.String()).Msg("booking cancelled")
	return updated, nil
}

// Delete removes a slot record outright. Deletion is not idempotent:
// a second call for the same id reports the slot as missing.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("slot_id", id.String()).Msg("slot deleted")
	return nil
}

// Reschedule atomically moves a booking from one slot to another. The
// old slot must be Booked and the new one Available; both writes land
// in a single transaction or not at all. The engine deliberately does
// not cross-check that the two slots share a doctor or specialization.
func (s *Service) Reschedule(ctx context.Context, oldID, newID uuid.UUID) (released, booked *Slot, err error) {
	oldSlot, err := s.repo.GetByID(ctx, oldID)
	if err != nil {
		return nil, nil, err
	}
	newSlot, err := s.repo.GetByID(ctx, newID)
	if err != nil {
		return nil, nil, err
	}
	if oldSlot.Status != StatusBooked {
		return nil, nil, ErrSlotNotBooked
	}
	if newSlot.Status != StatusAvailable {
		return nil, nil, ErrSlotNotAvailable
	}

	released, booked, err = s.repo.TransferBooking(ctx, oldID, newID)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Raced with another transition since the reads above; report
			// whichever side moved.
			if cur, getErr := s.repo.GetByID(ctx, oldID); getErr == nil && cur.Status != StatusBooked {
				return nil, nil, ErrSlotNotBooked
			}
			return nil, nil, ErrSlotNotAvailable
		}
		return nil, nil, err
	}

	s.log.Info().
		Str("old_slot_id", oldID.String()).
		Str("new_slot_id", newID.String()).
		Msg("booking rescheduled")
	return released, booked, nil
}

// GetByID returns the slot regardless of its status.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

// ByDoctor returns every slot a doctor has, in any status, so the
// doctor can audit their own schedule. A doctor with no slots at all
// is reported as unknown.
func (s *Service) ByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	slots, err := s.repo.FindByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrDoctorNotFound
	}
	return slots, nil
}

// ByDoctorAndDate returns the doctor's Available slots for a day.
// Zero open slots is an error here, unlike the range queries.
func (s *Service) ByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	slots, err := s.repo.FindByDoctorAndDate(ctx, doctorID, NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	available := filterAvailable(slots)
	if len(available) == 0 {
		return nil, ErrNoAvailability
	}
	return available, nil
}

// BySpecializationAndDate returns Available slots across all doctors
// of a specialization for a day; zero open slots is an error.
func (s *Service) BySpecializationAndDate(ctx context.Context, spec Specialization, date time.Time) ([]Slot, error) {
	slots, err := s.repo.FindBySpecializationAndDate(ctx, spec, NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	available := filterAvailable(slots)
	if len(available) == 0 {
		return nil, ErrNoAvailability
	}
	return available, nil
}

// ByDoctorDateRange returns the doctor's Available slots within
// [start, end]. An empty result is an ordinary empty slice, not an
// error; only an inverted range is rejected.
func (s *Service) ByDoctorDateRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Slot, error) {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	slots, err := s.repo.FindByDoctorDateRange(ctx, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	return filterAvailable(slots), nil
}

// BySpecializationDateRange behaves like ByDoctorDateRange keyed on
// specialization.
func (s *Service) BySpecializationDateRange(ctx context.Context, spec Specialization, start, end time.Time) ([]Slot, error) {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	slots, err := s.repo.FindBySpecializationDateRange(ctx, spec, start, end)
	if err != nil {
		return nil, err
	}
	return filterAvailable(slots), nil
}

// ListAll returns every Available slot across all doctors.
func (s *Service) ListAll(ctx context.Context) ([]Slot, error) {
	return s.repo.FindAllAvailable(ctx)
}

// RetirePastSlots marks still-open slots dated before today as
// Unavailable. Called periodically by the sweeper binary.
func (s *Service) RetirePastSlots(ctx context.Context) (int64, error) {
	today := NormalizeDate(time.Now())

	retired, err := s.repo.RetirePastSlots(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("retire past slots: %w", err)
	}

	if retired > 0 {
		s.log.Info().Int64("retired", retired).Msg("past slots marked unavailable")
	}
	return retired, nil
}

func filterAvailable(slots []Slot) []Slot {
	result := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Status == StatusAvailable {
			result = append(result, s)
		}
	}
	return result
}
