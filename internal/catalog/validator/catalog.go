package validator

import (
	"errors"
	"fmt"
	"reflect"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
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

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	v := validator.New()

	// Money is validated through its decimal string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if m, ok := field.Interface().(model.Money); ok {
			return m.String()
		}
		return nil
	}, model.Money{})

	if err := v.RegisterValidation("positive_money", validatePositiveMoney); err != nil {
		log.Fatal("Failed to register 'positive_money' validator",
			"error", err,
		)
	}

	return &CatalogValidator{
		validate: v,
		logger:   log,
	}
}

func validatePositiveMoney(fl validator.FieldLevel) bool {
	m, err := model.ParseMoney(fl.Field().String())
	return err == nil && m.Rounded().IsPositive()
}

// rateError checks a rate as it will be stored, rounded to cents.
func rateError(field, name string, rate *model.Money) *ValidationError {
	if rate == nil || rate.Rounded().IsPositive() {
		return nil
	}
	return &ValidationError{Field: field, Message: name + " must be at least 0.01"}
}

// ValidateProductCreate checks a product definition. The rate basis is
// chosen here: exactly one of the hourly and daily rates may be given.
func (v *CatalogValidator) ValidateProductCreate(p *model.ProductCreate) error {
	if err := v.structErrors(p); err != nil {
		return err
	}

	var errs ValidationErrors
	switch {
	case p.HourlyRate == nil && p.DailyRate == nil:
		errs = append(errs, ValidationError{Field: "HourlyRate", Message: "one of hourly_rate or daily_rate is required"})
	case p.HourlyRate != nil && p.DailyRate != nil:
		errs = append(errs, ValidationError{Field: "DailyRate", Message: "hourly_rate and daily_rate are mutually exclusive"})
	default:
		errs = appendRateErrors(errs, p.HourlyRate, p.DailyRate)
	}

	if p.MinHours != nil && p.MaxHours != nil && *p.MinHours > *p.MaxHours {
		errs = append(errs, ValidationError{Field: "MaxHours", Message: "max_hours must not be less than min_hours"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateProductUpdate checks an edit on its own. Bounds that depend on the
// stored product are checked again by ValidateProduct once the edit is applied.
func (v *CatalogValidator) ValidateProductUpdate(u *model.ProductUpdate) error {
	if err := v.structErrors(u); err != nil {
		return err
	}
	if u.Empty() {
		return ValidationErrors{{Field: "Update", Message: "at least one field is required"}}
	}

	var errs ValidationErrors
	if u.HourlyRate != nil && u.DailyRate != nil {
		errs = append(errs, ValidationError{Field: "DailyRate", Message: "hourly_rate and daily_rate are mutually exclusive"})
	} else {
		errs = appendRateErrors(errs, u.HourlyRate, u.DailyRate)
	}

	if u.MinHours != nil && u.MaxHours != nil && *u.MinHours > *u.MaxHours {
		errs = append(errs, ValidationError{Field: "MaxHours", Message: "max_hours must not be less than min_hours"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func appendRateErrors(errs ValidationErrors, hourly, daily *model.Money) ValidationErrors {
	if e := rateError("HourlyRate", "hourly_rate", hourly); e != nil {
		errs = append(errs, *e)
	}
	if e := rateError("DailyRate", "daily_rate", daily); e != nil {
		errs = append(errs, *e)
	}
	return errs
}

// ValidateProduct checks a fully built product, including its rate basis.
func (v *CatalogValidator) ValidateProduct(p *model.Product) error {
	if err := v.structErrors(p); err != nil {
		return err
	}
	if p.MinHours != nil && p.MaxHours != nil && *p.MinHours > *p.MaxHours {
		return ValidationErrors{{Field: "MaxHours", Message: "max_hours must not be less than min_hours"}}
	}
	return nil
}

func (v *CatalogValidator) ValidateUnitCreate(u *model.InventoryUnitCreate) error {
	return v.structErrors(u)
}

func (v *CatalogValidator) ValidateUnitUpdate(u *model.InventoryUnitUpdate) error {
	if err := v.structErrors(u); err != nil {
		return err
	}
	if u.Label == nil && u.Location == nil && u.Active == nil {
		return ValidationErrors{{Field: "Update", Message: "at least one of label, location or active is required"}}
	}
	return nil
}

func (v *CatalogValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *CatalogValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "positive_money":
			message = fmt.Sprintf("%s must be greater than 0", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
