package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/clinistack/slot-engine/internal/db"
	"github.com/clinistack/slot-engine/internal/logging"
	"github.com/clinistack/slot-engine/internal/slot"
)

// simulate hammers the booking endpoint with concurrent workers to
// exercise the exclusive-booking guarantee: for every slot, at most one
// booking request may succeed.

type simConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	SlotLimit  int
}

type opMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *opMetrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case status == http.StatusOK:
		atomic.AddInt64(&m.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *opMetrics) percentile(p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func main() {
	logging.Setup("simulate", "dev")

	cfg := simConfig{
		APIBaseURL: envOr("API_BASE_URL", "http://localhost:8080"),
		Duration:   envDuration("SIM_DURATION", 30*time.Second),
		Workers:    envInt("SIM_WORKERS", 20),
		SlotLimit:  envInt("SIM_SLOT_LIMIT", 200),
	}

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

	slotIDs, err := loadAvailableSlotIDs(context.Background(), pool, cfg.SlotLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("load slot ids")
	}
	if len(slotIDs) == 0 {
		log.Fatal().Msg("no available slots to simulate against, run seed first")
	}

	log.Info().
		Int("workers", cfg.Workers).
		Int("slots", len(slotIDs)).
		Dur("duration", cfg.Duration).
		Msg("simulation starting")

	metrics := &opMetrics{}
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for runCtx.Err() == nil {
				id := slotIDs[rng.Intn(len(slotIDs))]
				bookOnce(runCtx, client, cfg.APIBaseURL, id, metrics)
			}
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	fmt.Printf("total=%d success=%d conflict=%d error=%d\n",
		metrics.Total, metrics.Success, metrics.Conflict, metrics.Error)
	fmt.Printf("latency p50=%s p95=%s\n", metrics.percentile(0.50), metrics.percentile(0.95))

	if metrics.Success > int64(len(slotIDs)) {
		fmt.Println("WARNING: more successful bookings than slots, exclusivity violated")
	}
}

func bookOnce(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, metrics *opMetrics) {
	url := fmt.Sprintf("%s/availability/book/%s", baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			metrics.record(time.Since(start), 0)
		}
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	metrics.record(time.Since(start), resp.StatusCode)
}

func loadAvailableSlotIDs(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id
		FROM availability_slots
		WHERE status = $1
		ORDER BY date, time_slot
		LIMIT $2
	`, slot.StatusAvailable, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
