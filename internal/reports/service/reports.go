package service

import (
	"context"
	"slices"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultUpcomingWindow = 30 * 24 * time.Hour
	day                   = 24 * time.Hour
)

type Reservations interface {
	FindInWindow(ctx context.Context, start, end time.Time) ([]*model.Reservation, error)
}

type Units interface {
	Counts(ctx context.Context) ([]*model.InventoryCount, error)
}

type Orders interface {
	FindAll(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error)
}

type ProductUtilization struct {
	ProductID        string          `json:"product_id"`
	ActiveUnits      int64           `json:"active_units"`
	CapacityItemDays int64           `json:"capacity_item_days"`
	ReservedItemDays int64           `json:"reserved_item_days"`
	Percent          decimal.Decimal `json:"utilization_percent"`
}

type Utilization struct {
	Start            time.Time            `json:"start"`
	End              time.Time            `json:"end"`
	Days             int64                `json:"days"`
	ActiveUnits      int64                `json:"active_units"`
	CapacityItemDays int64                `json:"capacity_item_days"`
	ReservedItemDays int64                `json:"reserved_item_days"`
	Percent          decimal.Decimal      `json:"utilization_percent"`
	Products         []ProductUtilization `json:"products"`
}

type LateReturn struct {
	OrderID      string    `json:"order_id"`
	CustomerRef  string    `json:"customer_ref"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	DueAt        time.Time `json:"due_at"`
	HoursOverdue int64     `json:"hours_overdue"`
}

type ReportService interface {
	UpcomingReservations(ctx context.Context, start, end time.Time) ([]*model.Reservation, error)
	Utilization(ctx context.Context, start, end time.Time) (*Utilization, error)
	LateReturns(ctx context.Context) ([]LateReturn, error)
}

type reportService struct {
	reservations Reservations
	units        Units
	orders       Orders
	log          *logger.Logger
	now          func() time.Time
}

func NewReportService(reservations Reservations, units Units, orders Orders, log *logger.Logger) ReportService {
	return &reportService{
		reservations: reservations,
		units:        units,
		orders:       orders,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// window fills a missing start with now and a missing end with start plus
// fallback.
func (s *reportService) window(start, end time.Time, fallback time.Duration) (time.Time, time.Time, error) {
	if start.IsZero() {
		start = s.now()
	}
	if end.IsZero() {
		end = start.Add(fallback)
	}
	if !start.Before(end) {
		return start, end, apperrors.InvalidRange("start must be before end")
	}
	return start, end, nil
}

func (s *reportService) UpcomingReservations(ctx context.Context, start, end time.Time) ([]*model.Reservation, error) {
	start, end, err := s.window(start, end, DefaultUpcomingWindow)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.FindInWindow(ctx, start, end)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list upcoming reservations", "error", err)
		return nil, apperrors.Internal("Failed to list reservations", err)
	}
	return reservations, nil
}

// Utilization compares booked item-days with the item-days the active units
// could have been rented for. Every reservation and the window itself count
// as at least one day.
func (s *reportService) Utilization(ctx context.Context, start, end time.Time) (*Utilization, error) {
	start, end, err := s.window(start, end, DefaultUpcomingWindow)
	if err != nil {
		return nil, err
	}

	counts, err := s.units.Counts(ctx)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to count inventory", "error", err)
		return nil, apperrors.Internal("Failed to count inventory", err)
	}
	reservations, err := s.reservations.FindInWindow(ctx, start, end)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list reservations", "error", err)
		return nil, apperrors.Internal("Failed to list reservations", err)
	}

	days := wholeDays(end.Sub(start))
	reserved := map[string]int64{}
	for _, r := range reservations {
		from, to := r.Start, r.End
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		reserved[r.ProductID] += wholeDays(to.Sub(from))
	}

	report := &Utilization{
		Start:    start,
		End:      end,
		Days:     days,
		Products: make([]ProductUtilization, 0, len(counts)),
	}
	for _, c := range counts {
		p := ProductUtilization{
			ProductID:        c.ProductID,
			ActiveUnits:      c.Active,
			CapacityItemDays: c.Active * days,
			ReservedItemDays: reserved[c.ProductID],
		}
		p.Percent = percent(p.ReservedItemDays, p.CapacityItemDays)
		report.Products = append(report.Products, p)

		report.ActiveUnits += p.ActiveUnits
		report.CapacityItemDays += p.CapacityItemDays
		report.ReservedItemDays += p.ReservedItemDays
	}
	report.Percent = percent(report.ReservedItemDays, report.CapacityItemDays)
	return report, nil
}

func (s *reportService) LateReturns(ctx context.Context) ([]LateReturn, error) {
	confirmed, err := s.orders.FindAll(ctx, model.OrderFilter{Status: model.OrderConfirmed})
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list confirmed orders", "error", err)
		return nil, apperrors.Internal("Failed to list orders", err)
	}

	now := s.now()
	late := []LateReturn{}
	for _, o := range confirmed {
		var due time.Time
		for _, line := range o.Lines {
			if line.End.After(due) {
				due = line.End
			}
		}
		if due.IsZero() || !due.Before(now) {
			continue
		}
		late = append(late, LateReturn{
			OrderID:      o.ID,
			CustomerRef:  o.CustomerRef,
			ContactPhone: o.ContactPhone,
			DueAt:        due,
			HoursOverdue: int64(now.Sub(due) / time.Hour),
		})
	}

	slices.SortFunc(late, func(a, b LateReturn) int {
		return a.DueAt.Compare(b.DueAt)
	})
	return late, nil
}

func wholeDays(d time.Duration) int64 {
	return max(1, int64(d/day))
}

func percent(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole)).Round(2)
}
