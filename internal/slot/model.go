package slot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the bookability state of a slot. Only Status ever changes
// after a slot is created; every other field is immutable.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusBooked      Status = "Booked"
	StatusUnavailable Status = "Unavailable"
)

// Specialization is the closed set of practice areas a slot can be
// published under.
type Specialization string

const (
	SpecCardiology   Specialization = "Cardiology"
	SpecGynaecology  Specialization = "Gynaecology"
	SpecNeurology    Specialization = "Neurology"
	SpecDermatology  Specialization = "Dermatology"
	SpecOncology     Specialization = "Oncology"
	SpecPsychology   Specialization = "Psychology"
	SpecOrthodontics Specialization = "Orthodontics"
	SpecPulmonology  Specialization = "Pulmonology"
	SpecNephrology   Specialization = "Nephrology"
	SpecGeneral      Specialization = "General"
)

var specializations = map[Specialization]struct{}{
	SpecCardiology:   {},
	SpecGynaecology:  {},
	SpecNeurology:    {},
	SpecDermatology:  {},
	SpecOncology:     {},
	SpecPsychology:   {},
	SpecOrthodontics: {},
	SpecPulmonology:  {},
	SpecNephrology:   {},
	SpecGeneral:      {},
}

func ParseSpecialization(s string) (Specialization, error) {
	spec := Specialization(s)
	if _, ok := specializations[spec]; !ok {
		return "", fmt.Errorf("unknown specialization %q", s)
	}
	return spec, nil
}

// TimeSlot is a fixed half-hour bucket within the working day. It is an
// opaque value for equality and dedup purposes; nothing in the engine
// does time arithmetic on it.
type TimeSlot string

const (
	TimeSlot0900 TimeSlot = "09:00-09:30"
	TimeSlot0930 TimeSlot = "09:30-10:00"
	TimeSlot1000 TimeSlot = "10:00-10:30"
	TimeSlot1030 TimeSlot = "10:30-11:00"
	TimeSlot1100 TimeSlot = "11:00-11:30"
	TimeSlot1130 TimeSlot = "11:30-12:00"
	TimeSlot1200 TimeSlot = "12:00-12:30"
	TimeSlot1230 TimeSlot = "12:30-13:00"
	TimeSlot1400 TimeSlot = "14:00-14:30"
	TimeSlot1430 TimeSlot = "14:30-15:00"
	TimeSlot1500 TimeSlot = "15:00-15:30"
	TimeSlot1530 TimeSlot = "15:30-16:00"
	TimeSlot1600 TimeSlot = "16:00-16:30"
	TimeSlot1630 TimeSlot = "16:30-17:00"
)

// TimeSlots lists every bucket in day order.
var TimeSlots = []TimeSlot{
	TimeSlot0900, TimeSlot0930, TimeSlot1000, TimeSlot1030,
	TimeSlot1100, TimeSlot1130, TimeSlot1200, TimeSlot1230,
	TimeSlot1400, TimeSlot1430, TimeSlot1500, TimeSlot1530,
	TimeSlot1600, TimeSlot1630,
}

var timeSlots = func() map[TimeSlot]struct{} {
	m := make(map[TimeSlot]struct{}, len(TimeSlots))
	for _, ts := range TimeSlots {
		m[ts] = struct{}{}
	}
	return m
}()

func ParseTimeSlot(s string) (TimeSlot, error) {
	ts := TimeSlot(s)
	if _, ok := timeSlots[ts]; !ok {
		return "", fmt.Errorf("unknown time slot %q", s)
	}
	return ts, nil
}

// Slot is a single bookable (doctor, date, time window) unit.
// DoctorName is a snapshot taken at creation time and is never
// re-synced against the doctor record.
type Slot struct {
	ID             uuid.UUID
	DoctorID       uuid.UUID
	DoctorName     string
	Specialization Specialization
	Date           time.Time
	TimeSlot       TimeSlot
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SlotWindow is one requested (date, time slot) pair for bulk creation.
type SlotWindow struct {
	Date     time.Time
	TimeSlot TimeSlot
}

// NormalizeDate truncates t to a calendar date at UTC midnight. The
// engine performs no time zone conversion beyond this.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
