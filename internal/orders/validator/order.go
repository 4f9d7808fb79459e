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

type OrderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOrderValidator(log *logger.Logger) *OrderValidator {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if m, ok := field.Interface().(model.Money); ok {
			return m.String()
		}
		return nil
	}, model.Money{})

	if err := v.RegisterValidation("positive_money", func(fl validator.FieldLevel) bool {
		m, err := model.ParseMoney(fl.Field().String())
		return err == nil && m.IsPositive()
	}); err != nil {
		log.Fatal("Failed to register 'positive_money' validator", "error", err)
	}

	return &OrderValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateOrderCreate checks the shape of an order request. Windows are
// checked for ordering by the booking itself; here every line only needs a
// way to find its unit.
func (v *OrderValidator) ValidateOrderCreate(o *model.OrderCreate) error {
	if err := v.structErrors(o); err != nil {
		return err
	}

	var errs ValidationErrors
	for i, line := range o.Reservations {
		if line.InventoryItemID == "" && o.ProductID == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Reservations[%d].InventoryItemID", i),
				Message: "inventory_item_id is required when the order has no product_id",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *OrderValidator) ValidatePayment(p *model.PaymentConfirmation) error {
	return v.structErrors(p)
}

func (v *OrderValidator) ValidateStatusNote(n *model.StatusNote) error {
	return v.structErrors(n)
}

func (v *OrderValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *OrderValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must have at least %s item(s)", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be a phone number in E.164 format", err.Field())
		case "positive_money":
			message = fmt.Sprintf("%s must be greater than 0", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace(),
			Message: message,
		})
	}

	return validationErrors
}
