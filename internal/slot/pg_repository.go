package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `id, doctor_id, doctor_name, specialization, date, time_slot, status, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.DoctorName,
		&s.Specialization,
		&s.Date,
		&s.TimeSlot,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Date = NormalizeDate(s.Date)
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, s *Slot) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_slots (id, doctor_id, doctor_name, specialization, date, time_slot, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+slotColumns+`
	`, id, s.DoctorID, s.DoctorName, s.Specialization, s.Date, s.TimeSlot, s.Status)

	created, err := scanSlot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlot
		}
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) Exists(ctx context.Context, doctorID uuid.UUID, date time.Time, ts TimeSlot) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM availability_slots
			WHERE doctor_id = $1 AND date = $2 AND time_slot = $3
		)
	`, doctorID, date, ts).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot existence: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE availability_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, to, from)

	updated, err := scanSlot(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("update slot status: %w", err)
	}

	// No row matched: either the slot is gone or its status changed
	// under us. A follow-up read tells the two apart.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) TransferBooking(ctx context.Context, oldID, newID uuid.UUID) (*Slot, *Slot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback(ctx)

	released, err := r.transferStep(ctx, tx, oldID, StatusBooked, StatusAvailable)
	if err != nil {
		return nil, nil, err
	}

	booked, err := r.transferStep(ctx, tx, newID, StatusAvailable, StatusBooked)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit reschedule tx: %w", err)
	}

	return released, booked, nil
}

func (r *PgRepository) transferStep(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to Status) (*Slot, error) {
	row := tx.QueryRow(ctx, `
		UPDATE availability_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, to, from)

	updated, err := scanSlot(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("reschedule update: %w", err)
	}

	if _, getErr := scanSlot(tx.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE id = $1
	`, id)); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

func (r *PgRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1
		ORDER BY date, time_slot
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("find slots by doctor: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1 AND date = $2
		ORDER BY time_slot
	`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("find slots by doctor and date: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) FindByDoctorDateRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, time_slot
	`, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find slots by doctor and date range: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) FindBySpecializationAndDate(ctx context.Context, spec Specialization, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE specialization = $1 AND date = $2
		ORDER BY doctor_name, time_slot
	`, spec, date)
	if err != nil {
		return nil, fmt.Errorf("find slots by specialization and date: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) FindBySpecializationDateRange(ctx context.Context, spec Specialization, start, end time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE specialization = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, doctor_name, time_slot
	`, spec, start, end)
	if err != nil {
		return nil, fmt.Errorf("find slots by specialization and date range: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) FindAllAvailable(ctx context.Context) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE status = $1
		ORDER BY date, doctor_name, time_slot
	`, StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("find available slots: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) RetirePastSlots(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_slots
		SET status = $1,
		    updated_at = now()
		WHERE date < $2
		  AND status = $3
	`, StatusUnavailable, before, StatusAvailable)
	if err != nil {
		return 0, fmt.Errorf("retire past slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
