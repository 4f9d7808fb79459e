package validator

import (
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testValidator() *CatalogValidator {
	return NewCatalogValidator(logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
}

func TestValidateProduct(t *testing.T) {
	v := testValidator()
	valid := func() *model.Product {
		return &model.Product{
			ID:        model.NewID(),
			Name:      "Generator",
			Rate:      model.DailyRate(model.MustMoney("45")),
			Published: true,
			CreatedAt: time.Now(),
		}
	}

	tests := []struct {
		name      string
		mutate    func(p *model.Product)
		wantError bool
	}{
		{name: "valid", mutate: func(*model.Product) {}, wantError: false},
		{name: "zero rate", mutate: func(p *model.Product) { p.Rate.Rate = model.ZeroMoney }, wantError: true},
		{name: "sub-cent rate", mutate: func(p *model.Product) { p.Rate.Rate = model.MustMoney("0.004") }, wantError: true},
		{name: "unknown rate kind", mutate: func(p *model.Product) { p.Rate.Kind = "weekly" }, wantError: true},
		{name: "bad id", mutate: func(p *model.Product) { p.ID = "42" }, wantError: true},
		{name: "short name", mutate: func(p *model.Product) { p.Name = "G" }, wantError: true},
		{name: "bad image url", mutate: func(p *model.Product) { p.ImageURL = "not a url" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := v.ValidateProduct(p)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProductCreate_Messages(t *testing.T) {
	v := testValidator()
	rate := model.MustMoney("10")

	err := v.ValidateProductCreate(&model.ProductCreate{Name: "Saw", HourlyRate: &rate, DailyRate: &rate})

	var errs ValidationErrors
	if assert.ErrorAs(t, err, &errs) {
		assert.Equal(t, "DailyRate", errs[0].Field)
		assert.Contains(t, errs[0].Message, "mutually exclusive")
	}
}

func TestValidateProductCreate_RoundedRate(t *testing.T) {
	v := testValidator()
	money := func(s string) *model.Money {
		m := model.MustMoney(s)
		return &m
	}

	tests := []struct {
		name      string
		create    model.ProductCreate
		wantField string
	}{
		{name: "hourly rounds to zero", create: model.ProductCreate{Name: "Saw", HourlyRate: money("0.004")}, wantField: "HourlyRate"},
		{name: "daily rounds to zero", create: model.ProductCreate{Name: "Saw", DailyRate: money("0.004")}, wantField: "DailyRate"},
		{name: "negative hourly", create: model.ProductCreate{Name: "Saw", HourlyRate: money("-3")}, wantField: "HourlyRate"},
		{name: "hourly rounds up to a cent", create: model.ProductCreate{Name: "Saw", HourlyRate: money("0.005")}},
		{name: "daily of one cent", create: model.ProductCreate{Name: "Saw", DailyRate: money("0.01")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateProductCreate(&tt.create)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var errs ValidationErrors
			if assert.ErrorAs(t, err, &errs) {
				assert.Equal(t, tt.wantField, errs[0].Field)
				assert.Contains(t, errs[0].Message, "at least 0.01")
			}
		})
	}
}

func TestValidateProductUpdate(t *testing.T) {
	v := testValidator()
	money := func(s string) *model.Money {
		m := model.MustMoney(s)
		return &m
	}
	hours := func(n int64) *int64 { return &n }
	name := "Chainsaw"
	short := "C"

	tests := []struct {
		name      string
		update    model.ProductUpdate
		wantError bool
	}{
		{name: "rename", update: model.ProductUpdate{Name: &name}},
		{name: "switch to daily", update: model.ProductUpdate{DailyRate: money("80")}},
		{name: "empty", update: model.ProductUpdate{}, wantError: true},
		{name: "short name", update: model.ProductUpdate{Name: &short}, wantError: true},
		{name: "both rates", update: model.ProductUpdate{HourlyRate: money("5"), DailyRate: money("80")}, wantError: true},
		{name: "rate rounds to zero", update: model.ProductUpdate{HourlyRate: money("0.004")}, wantError: true},
		{name: "min above max", update: model.ProductUpdate{MinHours: hours(8), MaxHours: hours(4)}, wantError: true},
		{name: "zero min hours", update: model.ProductUpdate{MinHours: hours(0)}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateProductUpdate(&tt.update)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUnitCreate(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateUnitCreate(&model.InventoryUnitCreate{ProductID: model.NewID(), Label: "Saw 2"}))
	assert.Error(t, v.ValidateUnitCreate(&model.InventoryUnitCreate{ProductID: "p1", Label: "Saw 2"}))
	assert.Error(t, v.ValidateUnitCreate(&model.InventoryUnitCreate{ProductID: model.NewID()}))
}
