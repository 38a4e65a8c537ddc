package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinistack/slot-engine/internal/slot"
)

type RouterConfig struct {
	Service *slot.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Route shapes follow the availability module's REST surface.
	r.Route("/availability", func(r chi.Router) {
		r.Post("/create/doctor", createSlotsHandler(cfg.Service))
		r.Get("/doctors", listAvailableSlotsHandler(cfg.Service))
		r.Get("/doctor/{doctorID}", doctorSlotsHandler(cfg.Service))
		r.Get("/doctor/{doctorID}/date/{date}", doctorSlotsByDateHandler(cfg.Service))
		r.Get("/doctor/{doctorID}/date-range", doctorSlotsByDateRangeHandler(cfg.Service))
		r.Get("/specialization/{specialization}/date/{date}", specializationSlotsByDateHandler(cfg.Service))
		r.Get("/specialization/{specialization}/date-range", specializationSlotsByDateRangeHandler(cfg.Service))
		r.Get("/{id}", getSlotHandler(cfg.Service))
		r.Put("/book/{id}", bookSlotHandler(cfg.Service))
		r.Put("/cancel/{id}", cancelSlotHandler(cfg.Service))
		r.Put("/update/{id}/reschedule/{newID}", rescheduleSlotHandler(cfg.Service))
		r.Delete("/delete/{id}", deleteSlotHandler(cfg.Service))
	})

	return r
}
