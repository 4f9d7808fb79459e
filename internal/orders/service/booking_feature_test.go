package service_test

import (
	"context"
	"errors"
	"fmt"
	"smartrentals/internal/orders/service"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

type bookingFeature struct {
	t       *testing.T
	engine  *engine
	product *model.Product
	order   *model.Order
	err     error
}

func (f *bookingFeature) clock(hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute), nil
}

func (f *bookingFeature) aProductBilledPerHour(rate string, minHours int) error {
	m := model.MustMoney(rate)
	minimum := int64(minHours)
	p, err := f.engine.catalog.CreateProduct(context.Background(), &model.ProductCreate{
		Name:       "Scissor Lift",
		HourlyRate: &m,
		MinHours:   &minimum,
	})
	f.product = p
	return err
}

// theProductHasActiveUnits checks the unit created with the product.
func (f *bookingFeature) theProductHasActiveUnits(n int) error {
	units, err := f.engine.catalog.ListActiveUnits(context.Background(), f.product.ID)
	if err != nil {
		return err
	}
	if len(units) != n {
		return fmt.Errorf("expected %d active units, got %d", n, len(units))
	}
	return nil
}

func (f *bookingFeature) theProductHasMoreActiveUnits(n int) error {
	for range n {
		if _, err := f.engine.catalog.CreateUnit(context.Background(), &model.InventoryUnitCreate{
			ProductID: f.product.ID,
			Label:     "Scissor Lift spare",
		}); err != nil {
			return err
		}
	}
	return nil
}

func (f *bookingFeature) book(from, to string) error {
	start, err := f.clock(from)
	if err != nil {
		return err
	}
	end, err := f.clock(to)
	if err != nil {
		return err
	}
	f.order, f.err = f.engine.orders.BookOrder(context.Background(), f.product.ID,
		[]service.Window{{Start: start, End: end}}, "feature-customer")
	return nil
}

func (f *bookingFeature) theProductIsBooked(from, to string) error {
	if err := f.book(from, to); err != nil {
		return err
	}
	return f.err
}

func (f *bookingFeature) theOrderIsPending() error {
	if f.err != nil {
		return fmt.Errorf("expected an order, got %v", f.err)
	}
	if f.order.Status != model.OrderPending {
		return fmt.Errorf("expected status pending, got %s", f.order.Status)
	}
	return nil
}

func (f *bookingFeature) theOrderTotalIs(total string) error {
	if f.err != nil {
		return fmt.Errorf("expected an order, got %v", f.err)
	}
	if got := f.order.Total.String(); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (f *bookingFeature) everyLineIsBilled(basis string) error {
	for i, line := range f.order.Lines {
		if string(line.Quote.RateBasis) != basis {
			return fmt.Errorf("line %d billed %s, expected %s", i, line.Quote.RateBasis, basis)
		}
	}
	return nil
}

func (f *bookingFeature) theBookingFailsWith(code string) error {
	if f.err == nil {
		return errors.New("expected the booking to fail but it succeeded")
	}
	if !apperrors.HasCode(f.err, code) {
		return fmt.Errorf("expected %s, got %v", code, f.err)
	}
	return nil
}

func initializeBookingScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		f := &bookingFeature{t: t}

		ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			f.engine = newEngine(t)
			f.product, f.order, f.err = nil, nil, nil
			return ctx, nil
		})

		ctx.Step(`^a product billed at (\d+\.\d{2}) per hour with a minimum of (\d+) hours$`, f.aProductBilledPerHour)
		ctx.Step(`^the product has (\d+) active units?$`, f.theProductHasActiveUnits)
		ctx.Step(`^the product has (\d+) more active units?$`, f.theProductHasMoreActiveUnits)
		ctx.Step(`^the product is booked from "([^"]*)" to "([^"]*)"$`, f.theProductIsBooked)

		ctx.Step(`^I book the product from "([^"]*)" to "([^"]*)"$`, f.book)

		ctx.Step(`^the order is pending$`, f.theOrderIsPending)
		ctx.Step(`^the order total is "([^"]*)"$`, f.theOrderTotalIs)
		ctx.Step(`^every line is billed "([^"]*)"$`, f.everyLineIsBilled)
		ctx.Step(`^the booking fails with "([^"]*)"$`, f.theBookingFailsWith)
	}
}

func TestBookingFeature(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeBookingScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/booking.feature"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
