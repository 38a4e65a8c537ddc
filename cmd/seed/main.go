package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/clinistack/slot-engine/internal/db"
	"github.com/clinistack/slot-engine/internal/logging"
	"github.com/clinistack/slot-engine/internal/slot"
)

const (
	doctorCount = 50
	seedDays    = 7
)

func main() {
	logging.Setup("seed", "dev")
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctorSlots(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("seed slots")
	}

	log.Info().Msg("seed complete")
}

func seedDoctorSlots(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Int("doctors", doctorCount).Int("days", seedDays).Msg("seeding availability slots")

	specializations := []slot.Specialization{
		slot.SpecCardiology,
		slot.SpecGynaecology,
		slot.SpecNeurology,
		slot.SpecDermatology,
		slot.SpecOncology,
		slot.SpecPsychology,
		slot.SpecOrthodontics,
		slot.SpecPulmonology,
		slot.SpecNephrology,
		slot.SpecGeneral,
	}

	repo := slot.NewPgRepository(pool)
	today := slot.NormalizeDate(time.Now())

	var total int
	for i := 0; i < doctorCount; i++ {
		doctorID := uuid.New()
		doctorName := "Dr. " + gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]

		for day := 0; day < seedDays; day++ {
			date := today.AddDate(0, 0, day)

			for _, ts := range slot.TimeSlots {
				// Leave holes in the schedule so queries return a mix.
				if gofakeit.Number(0, 2) == 0 {
					continue
				}

				if _, err := repo.Insert(ctx, &slot.Slot{
					DoctorID:       doctorID,
					DoctorName:     doctorName,
					Specialization: spec,
					Date:           date,
					TimeSlot:       ts,
					Status:         slot.StatusAvailable,
				}); err != nil {
					return err
				}
				total++
			}
		}
	}

	log.Info().Int("slots", total).Msg("availability slots seeded")
	return nil
}
