package validator

import (
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *OrderValidator {
	return NewOrderValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}))
}

func window() model.ReservationRequest {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return model.ReservationRequest{StartDate: start, EndDate: start.Add(3 * time.Hour)}
}

func TestValidateOrderCreate(t *testing.T) {
	tests := []struct {
		name    string
		order   model.OrderCreate
		wantErr bool
	}{
		{
			name:  "product order",
			order: model.OrderCreate{CustomerRef: "c1", ProductID: "p1", Reservations: []model.ReservationRequest{window()}},
		},
		{
			name: "pinned units without product",
			order: model.OrderCreate{CustomerRef: "c1", Reservations: []model.ReservationRequest{
				{InventoryItemID: "u1", StartDate: window().StartDate, EndDate: window().EndDate},
			}},
		},
		{
			name:    "missing customer",
			order:   model.OrderCreate{ProductID: "p1", Reservations: []model.ReservationRequest{window()}},
			wantErr: true,
		},
		{
			name:    "no reservations",
			order:   model.OrderCreate{CustomerRef: "c1", ProductID: "p1"},
			wantErr: true,
		},
		{
			name:    "line without a unit or product",
			order:   model.OrderCreate{CustomerRef: "c1", Reservations: []model.ReservationRequest{window()}},
			wantErr: true,
		},
		{
			name:    "missing end",
			order:   model.OrderCreate{CustomerRef: "c1", ProductID: "p1", Reservations: []model.ReservationRequest{{StartDate: window().StartDate}}},
			wantErr: true,
		},
		{
			name:    "bad phone",
			order:   model.OrderCreate{CustomerRef: "c1", ContactPhone: "0501234567", ProductID: "p1", Reservations: []model.ReservationRequest{window()}},
			wantErr: true,
		},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateOrderCreate(&tt.order)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrderCreate_ReportsLinePath(t *testing.T) {
	o := model.OrderCreate{CustomerRef: "c1", Reservations: []model.ReservationRequest{window(), window()}}

	err := newValidator().ValidateOrderCreate(&o)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "Reservations[1].InventoryItemID", errs[1].Field)
}

func TestValidatePayment(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.ValidatePayment(&model.PaymentConfirmation{Method: "card", Amount: model.MustMoney("30.00")}))
	assert.Error(t, v.ValidatePayment(&model.PaymentConfirmation{Method: "card", Amount: model.ZeroMoney}))
	assert.Error(t, v.ValidatePayment(&model.PaymentConfirmation{Amount: model.MustMoney("1")}))
}
