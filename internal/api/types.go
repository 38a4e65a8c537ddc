package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinistack/slot-engine/internal/slot"
)

const dateLayout = "2006-01-02"

type SlotWindowRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"timeSlot" validate:"required,timeslot"`
}

type CreateSlotsRequest struct {
	DoctorID       string              `json:"doctorId" validate:"required,uuid"`
	DoctorName     string              `json:"doctorName" validate:"required"`
	Specialization string              `json:"specialization" validate:"required,specialization"`
	Availability   []SlotWindowRequest `json:"availability" validate:"required,min=1,dive"`
}

type SlotResponse struct {
	ID             uuid.UUID `json:"id"`
	DoctorID       uuid.UUID `json:"doctorId"`
	DoctorName     string    `json:"doctorName"`
	Specialization string    `json:"specialization"`
	Date           string    `json:"date"`
	TimeSlot       string    `json:"timeSlot"`
	Status         string    `json:"status"`
}

type CreateSlotsResponse struct {
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Slots   []SlotResponse `json:"slots"`
}

type RescheduleResponse struct {
	Released SlotResponse `json:"released"`
	Booked   SlotResponse `json:"booked"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s slot.Slot) SlotResponse {
	return SlotResponse{
		ID:             s.ID,
		DoctorID:       s.DoctorID,
		DoctorName:     s.DoctorName,
		Specialization: string(s.Specialization),
		Date:           s.Date.Format(dateLayout),
		TimeSlot:       string(s.TimeSlot),
		Status:         string(s.Status),
	}
}

func toSlotResponses(slots []slot.Slot) []SlotResponse {
	result := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		result = append(result, toSlotResponse(s))
	}
	return result
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
