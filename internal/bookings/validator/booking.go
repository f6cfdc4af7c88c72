package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"calbook/pkg/logger"
	"calbook/pkg/model"
	"calbook/pkg/timeparse"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("ampm_time", validateAmPmTime); err != nil {
		log.Fatal("Failed to register 'ampm_time' validator", "error", err)
	}
	if err := v.RegisterValidation("calltype", validateCallType); err != nil {
		log.Fatal("Failed to register 'calltype' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateAmPmTime(fl validator.FieldLevel) bool {
	_, err := timeparse.ToMinutes(fl.Field().String())
	return err == nil
}

func validateCallType(fl validator.FieldLevel) bool {
	return model.CallType(fl.Field().String()).Valid()
}

func (v *BookingValidator) Validate(data *model.BookingData) error {
	if err := v.validate.Struct(data); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		case "ampm_time":
			message = fmt.Sprintf("%s must be a 12-hour clock time such as \"2:30 PM\"", err.Field())
		case "calltype":
			message = fmt.Sprintf("%s must be %q or %q", err.Field(), model.CallTypeOnboarding, model.CallTypeFollowUp)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
