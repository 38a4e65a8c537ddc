package slot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs
// the test suite and local development without Postgres, and honors
// the same compare-and-set semantics as PgRepository.
type MemoryRepository struct {
	mu    sync.Mutex
	slots map[uuid.UUID]Slot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[uuid.UUID]Slot)}
}

func (r *MemoryRepository) Insert(_ context.Context, s *Slot) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.slots {
		if existing.DoctorID == s.DoctorID && existing.Date.Equal(s.Date) && existing.TimeSlot == s.TimeSlot {
			return nil, ErrDuplicateSlot
		}
	}

	now := time.Now()
	stored := *s
	stored.ID = uuid.New()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.slots[stored.ID] = stored

	return &stored, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *MemoryRepository) getLocked(id uuid.UUID) (*Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) Exists(_ context.Context, doctorID uuid.UUID, date time.Time, ts TimeSlot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.Date.Equal(date) && s.TimeSlot == ts {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateStatusLocked(id, from, to)
}

func (r *MemoryRepository) updateStatusLocked(id uuid.UUID, from, to Status) (*Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if s.Status != from {
		return nil, ErrStatusConflict
	}

	s.Status = to
	s.UpdatedAt = time.Now()
	r.slots[id] = s

	return &s, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r *MemoryRepository) TransferBooking(_ context.Context, oldID, newID uuid.UUID) (*Slot, *Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate both sides before touching either so a failure on the
	// second never leaves the first half applied.
	oldSlot, err := r.getLocked(oldID)
	if err != nil {
		return nil, nil, err
	}
	newSlot, err := r.getLocked(newID)
	if err != nil {
		return nil, nil, err
	}
	if oldSlot.Status != StatusBooked || newSlot.Status != StatusAvailable {
		return nil, nil, ErrStatusConflict
	}

	released, err := r.updateStatusLocked(oldID, StatusBooked, StatusAvailable)
	if err != nil {
		return nil, nil, err
	}
	booked, err := r.updateStatusLocked(newID, StatusAvailable, StatusBooked)
	if err != nil {
		return nil, nil, err
	}

	return released, booked, nil
}

func (r *MemoryRepository) FindByDoctor(_ context.Context, doctorID uuid.UUID) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.DoctorID == doctorID
	}), nil
}

func (r *MemoryRepository) FindByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.DoctorID == doctorID && s.Date.Equal(date)
	}), nil
}

func (r *MemoryRepository) FindByDoctorDateRange(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.DoctorID == doctorID && !s.Date.Before(start) && !s.Date.After(end)
	}), nil
}

func (r *MemoryRepository) FindBySpecializationAndDate(_ context.Context, spec Specialization, date time.Time) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.Specialization == spec && s.Date.Equal(date)
	}), nil
}

func (r *MemoryRepository) FindBySpecializationDateRange(_ context.Context, spec Specialization, start, end time.Time) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.Specialization == spec && !s.Date.Before(start) && !s.Date.After(end)
	}), nil
}

func (r *MemoryRepository) FindAllAvailable(_ context.Context) ([]Slot, error) {
	return r.collect(func(s Slot) bool {
		return s.Status == StatusAvailable
	}), nil
}

func (r *MemoryRepository) RetirePastSlots(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var retired int64
	for id, s := range r.slots {
		if s.Status == StatusAvailable && s.Date.Before(before) {
			s.Status = StatusUnavailable
			s.UpdatedAt = time.Now()
			r.slots[id] = s
			retired++
		}
	}
	return retired, nil
}

func (r *MemoryRepository) collect(match func(Slot) bool) []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Slot
	for _, s := range r.slots {
		if match(s) {
			result = append(result, s)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].TimeSlot < result[j].TimeSlot
	})

	return result
}
