package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/slot-engine/internal/slot"
)

type passthroughLocker struct{}

func (passthroughLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestRouter() http.Handler {
	repo := slot.NewMemoryRepository()
	svc := slot.NewService(repo, passthroughLocker{}, zerolog.Nop())
	return NewRouter(RouterConfig{
		Service: svc,
		Env:     "test",
		Version: "test",
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSlotsViaAPI(t *testing.T, router http.Handler, doctorID uuid.UUID, windows []SlotWindowRequest) CreateSlotsResponse {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/availability/create/doctor", CreateSlotsRequest{
		DoctorID:       doctorID.String(),
		DoctorName:     "Dr. Handler",
		Specialization: "Cardiology",
		Availability:   windows,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateSlotsEndpoint(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	windows := []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
		{Date: "2025-05-01", TimeSlot: "09:30-10:00"},
	}

	resp := createSlotsViaAPI(t, router, doctorID, windows)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 0, resp.Skipped)

	// Resubmitting the identical request creates nothing new.
	resp = createSlotsViaAPI(t, router, doctorID, windows)
	assert.Equal(t, 0, resp.Created)
	assert.Equal(t, 2, resp.Skipped)
}

func TestCreateSlotsValidation(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		name string
		req  CreateSlotsRequest
	}{
		{"bad specialization", CreateSlotsRequest{
			DoctorID: uuid.NewString(), DoctorName: "Dr. X", Specialization: "Magic",
			Availability: []SlotWindowRequest{{Date: "2025-05-01", TimeSlot: "09:00-09:30"}},
		}},
		{"bad time slot", CreateSlotsRequest{
			DoctorID: uuid.NewString(), DoctorName: "Dr. X", Specialization: "General",
			Availability: []SlotWindowRequest{{Date: "2025-05-01", TimeSlot: "09:00-10:00"}},
		}},
		{"bad date", CreateSlotsRequest{
			DoctorID: uuid.NewString(), DoctorName: "Dr. X", Specialization: "General",
			Availability: []SlotWindowRequest{{Date: "01/05/2025", TimeSlot: "09:00-09:30"}},
		}},
		{"bad doctor id", CreateSlotsRequest{
			DoctorID: "42", DoctorName: "Dr. X", Specialization: "General",
			Availability: []SlotWindowRequest{{Date: "2025-05-01", TimeSlot: "09:00-09:30"}},
		}},
		{"empty availability", CreateSlotsRequest{
			DoctorID: uuid.NewString(), DoctorName: "Dr. X", Specialization: "General",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/availability/create/doctor", tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBookCancelFlow(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	created := createSlotsViaAPI(t, router, doctorID, []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})
	require.Len(t, created.Slots, 1)
	id := created.Slots[0].ID

	rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/book/%s", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var booked SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booked))
	assert.Equal(t, "Booked", booked.Status)

	// Double booking conflicts.
	rec = doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/book/%s", id), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "slot_not_available", errResp.Error)

	rec = doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/cancel/%s", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "Available", cancelled.Status)
}

func TestBookUnknownSlotReturns404(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/book/%s", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/availability/book/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoctorDateQueryAndRangeAsymmetry(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	createSlotsViaAPI(t, router, doctorID, []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})

	// Point query with open slots.
	rec := doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/availability/doctor/%s/date/2025-05-01", doctorID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Point query with no open slots errors.
	rec = doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/availability/doctor/%s/date/2025-05-02", doctorID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "no_availability", errResp.Error)

	// Range query over the same empty day succeeds with [].
	rec = doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/availability/doctor/%s/date-range?startDate=2025-05-02&endDate=2025-05-03", doctorID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Inverted range is rejected.
	rec = doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/availability/doctor/%s/date-range?startDate=2025-06-10&endDate=2025-06-01", doctorID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpecializationQueries(t *testing.T) {
	router := newTestRouter()

	createSlotsViaAPI(t, router, uuid.New(), []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})

	rec := doRequest(t, router, http.MethodGet, "/availability/specialization/Cardiology/date/2025-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var slots []SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	assert.Len(t, slots, 1)

	rec = doRequest(t, router, http.MethodGet, "/availability/specialization/Neurology/date/2025-05-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/availability/specialization/Wizardry/date/2025-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet,
		"/availability/specialization/Cardiology/date-range?startDate=2025-05-01&endDate=2025-05-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRescheduleEndpoint(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	created := createSlotsViaAPI(t, router, doctorID, []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
		{Date: "2025-05-01", TimeSlot: "09:30-10:00"},
	})
	require.Len(t, created.Slots, 2)
	oldID, newID := created.Slots[0].ID, created.Slots[1].ID

	rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/book/%s", oldID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPut,
		fmt.Sprintf("/availability/update/%s/reschedule/%s", oldID, newID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RescheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Available", resp.Released.Status)
	assert.Equal(t, "Booked", resp.Booked.Status)

	// Old slot is no longer booked, so a repeat reschedule conflicts.
	rec = doRequest(t, router, http.MethodPut,
		fmt.Sprintf("/availability/update/%s/reschedule/%s", oldID, newID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	created := createSlotsViaAPI(t, router, doctorID, []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})
	id := created.Slots[0].ID

	rec := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/availability/delete/%s", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/availability/delete/%s", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSlotAnyStatus(t *testing.T) {
	router := newTestRouter()
	doctorID := uuid.New()

	created := createSlotsViaAPI(t, router, doctorID, []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})
	id := created.Slots[0].ID

	rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/availability/book/%s", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// getById returns the slot regardless of status.
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/availability/%s", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Booked", got.Status)
}

func TestListAllEndpoint(t *testing.T) {
	router := newTestRouter()

	createSlotsViaAPI(t, router, uuid.New(), []SlotWindowRequest{
		{Date: "2025-05-01", TimeSlot: "09:00-09:30"},
	})

	rec := doRequest(t, router, http.MethodGet, "/availability/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var slots []SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	assert.Len(t, slots, 1)
}
