package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/clinistack/slot-engine/internal/redis"
	"github.com/clinistack/slot-engine/internal/slot"
)

func createSlotsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		spec, err := slot.ParseSpecialization(req.Specialization)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_specialization", err.Error())
			return
		}

		windows := make([]slot.SlotWindow, 0, len(req.Availability))
		for _, a := range req.Availability {
			date, err := parseDate(a.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must use format "+dateLayout)
				return
			}
			ts, err := slot.ParseTimeSlot(a.TimeSlot)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_time_slot", err.Error())
				return
			}
			windows = append(windows, slot.SlotWindow{Date: date, TimeSlot: ts})
		}

		created, err := svc.CreateSlots(r.Context(), doctorID, req.DoctorName, spec, windows)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateSlotsResponse{
			Created: len(created),
			Skipped: len(windows) - len(created),
			Slots:   toSlotResponses(created),
		})
	}
}

func getSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r, "id")
		if !ok {
			return
		}

		s, err := svc.GetByID(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(*s))
	}
}

func doctorSlotsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "doctorID", "invalid_doctor_id")
		if !ok {
			return
		}

		slots, err := svc.ByDoctor(r.Context(), doctorID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func doctorSlotsByDateHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "doctorID", "invalid_doctor_id")
		if !ok {
			return
		}
		date, ok := dateParam(w, chi.URLParam(r, "date"))
		if !ok {
			return
		}

		slots, err := svc.ByDoctorAndDate(r.Context(), doctorID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func doctorSlotsByDateRangeHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "doctorID", "invalid_doctor_id")
		if !ok {
			return
		}
		start, end, ok := dateRangeParams(w, r)
		if !ok {
			return
		}

		slots, err := svc.ByDoctorDateRange(r.Context(), doctorID, start, end)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func specializationSlotsByDateHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, ok := specializationParam(w, r)
		if !ok {
			return
		}
		date, ok := dateParam(w, chi.URLParam(r, "date"))
		if !ok {
			return
		}

		slots, err := svc.BySpecializationAndDate(r.Context(), spec, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func specializationSlotsByDateRangeHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, ok := specializationParam(w, r)
		if !ok {
			return
		}
		start, end, ok := dateRangeParams(w, r)
		if !ok {
			return
		}

		slots, err := svc.BySpecializationDateRange(r.Context(), spec, start, end)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func listAvailableSlotsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListAll(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func bookSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r, "id")
		if !ok {
			return
		}

		s, err := svc.Book(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(*s))
	}
}

func cancelSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r, "id")
		if !ok {
			return
		}

		s, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(*s))
	}
}

func deleteSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "slot deleted"})
	}
}

func rescheduleSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oldID, ok := slotIDParam(w, r, "id")
		if !ok {
			return
		}
		newID, ok := slotIDParam(w, r, "newID")
		if !ok {
			return
		}

		released, booked, err := svc.Reschedule(r.Context(), oldID, newID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, RescheduleResponse{
			Released: toSlotResponse(*released),
			Booked:   toSlotResponse(*booked),
		})
	}
}

// Param helpers. Each writes the error response itself and reports
// success through the bool.

func slotIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	return uuidParam(w, r, name, "invalid_slot_id")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, code, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func dateParam(w http.ResponseWriter, raw string) (time.Time, bool) {
	date, err := parseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must use format "+dateLayout)
		return time.Time{}, false
	}
	return date, true
}

func dateRangeParams(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	start, ok = dateParam(w, r.URL.Query().Get("startDate"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok = dateParam(w, r.URL.Query().Get("endDate"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func specializationParam(w http.ResponseWriter, r *http.Request) (slot.Specialization, bool) {
	spec, err := slot.ParseSpecialization(chi.URLParam(r, "specialization"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_specialization", err.Error())
		return "", false
	}
	return spec, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slot.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, slot.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, slot.ErrNoAvailability):
		writeError(w, http.StatusNotFound, "no_availability", err.Error())
	case errors.Is(err, slot.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, slot.ErrSlotNotBooked):
		writeError(w, http.StatusConflict, "slot_not_booked", err.Error())
	case errors.Is(err, slot.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, slot.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "invalid_date_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
