package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/clinistack/slot-engine/internal/slot"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("specialization", validateSpecialization)
	_ = validate.RegisterValidation("timeslot", validateTimeSlot)
}

func validateSpecialization(fl validator.FieldLevel) bool {
	_, err := slot.ParseSpecialization(fl.Field().String())
	return err == nil
}

func validateTimeSlot(fl validator.FieldLevel) bool {
	_, err := slot.ParseTimeSlot(fl.Field().String())
	return err == nil
}
