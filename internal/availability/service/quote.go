package service

import (
	"fmt"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"time"
)

const hoursPerDay = 24

// BillableHours is the length of [start, end) in whole hours, rounded up:
// any part of an hour is billed as a full hour.
func BillableHours(start, end time.Time) int64 {
	d := end.Sub(start)
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

// ComputeQuote prices [start, end) for product. It is pure: equal inputs
// always produce equal quotes.
func ComputeQuote(product *model.Product, start, end time.Time) (*model.Quote, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}

	hours := BillableHours(start, end)
	if product.MinHours != nil && hours < *product.MinHours {
		return nil, apperrors.DurationOutOfBounds(apperrors.BoundMin, *product.MinHours, hours)
	}
	if product.MaxHours != nil && hours > *product.MaxHours {
		return nil, apperrors.DurationOutOfBounds(apperrors.BoundMax, *product.MaxHours, hours)
	}

	quote := &model.Quote{
		DurationHours: hours,
		RateBasis:     product.Rate.Kind,
		Rate:          product.Rate.Rate,
	}
	switch product.Rate.Kind {
	case model.RateHourly:
		quote.Total = product.Rate.Rate.MulInt(hours).Rounded()
	case model.RateDaily:
		quote.DurationDays = (hours + hoursPerDay - 1) / hoursPerDay
		quote.Total = product.Rate.Rate.MulInt(quote.DurationDays).Rounded()
	default:
		return nil, apperrors.Internal("Product has no usable rate basis",
			fmt.Errorf("product %s: unknown rate kind %q", product.ID, product.Rate.Kind))
	}
	return quote, nil
}

// CheckRange rejects windows that are empty or inverted.
func CheckRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.InvalidRange("start and end are required")
	}
	if !start.Before(end) {
		return apperrors.InvalidRange("start must be before end")
	}
	return nil
}
