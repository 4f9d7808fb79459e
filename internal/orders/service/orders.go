package service

import (
	"context"
	"errors"
	"fmt"
	availability "smartrentals/internal/availability/service"
	"smartrentals/internal/orders/events"
	orderserrors "smartrentals/internal/orders/errors"
	"smartrentals/internal/orders/repository"
	"smartrentals/internal/orders/validator"
	reservationserrors "smartrentals/internal/reservations/errors"
	reservations "smartrentals/internal/reservations/repository"
	"smartrentals/pkg/config"
	"smartrentals/pkg/db"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"smartrentals/pkg/sanitizer"
	"sync"
	"time"
)

// Catalog is the part of the catalog booking reads.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetUnit(ctx context.Context, id string) (*model.InventoryUnit, error)
}

type Settings interface {
	Get(ctx context.Context) (*model.Settings, error)
}

// Window is one requested rental interval, [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

type OrderService interface {
	// PlaceOrder books every requested window or none of them.
	PlaceOrder(ctx context.Context, create *model.OrderCreate) (*model.Order, error)
	BookOrder(ctx context.Context, productID string, windows []Window, customerRef string) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]*model.Order, int64, error)

	Confirm(ctx context.Context, id string, payment *model.PaymentConfirmation) (*model.Order, error)
	Return(ctx context.Context, id string, note *model.StatusNote) (*model.Order, error)
	Cancel(ctx context.Context, id string, note *model.StatusNote) (*model.Order, error)

	// ExpirePending cancels orders still pending after olderThan and
	// reports how many it cancelled.
	ExpirePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type orderService struct {
	orders    repository.OrderRepository
	ledger    reservations.Ledger
	resolver  *availability.Resolver
	catalog   Catalog
	settings  Settings
	tx        db.TransactionManager
	publisher events.Publisher
	validator *validator.OrderValidator
	cfg       *config.Config
}

func NewOrderService(
	orders repository.OrderRepository,
	ledger reservations.Ledger,
	resolver *availability.Resolver,
	catalog Catalog,
	settings Settings,
	tx db.TransactionManager,
	publisher events.Publisher,
	validator *validator.OrderValidator,
	cfg *config.Config,
) OrderService {
	return &orderService{
		orders:    orders,
		ledger:    ledger,
		resolver:  resolver,
		catalog:   catalog,
		settings:  settings,
		tx:        tx,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *orderService) BookOrder(ctx context.Context, productID string, windows []Window, customerRef string) (*model.Order, error) {
	create := &model.OrderCreate{
		CustomerRef:  customerRef,
		ProductID:    productID,
		Reservations: make([]model.ReservationRequest, len(windows)),
	}
	for i, w := range windows {
		create.Reservations[i] = model.ReservationRequest{StartDate: w.Start, EndDate: w.End}
	}
	return s.PlaceOrder(ctx, create)
}

func (s *orderService) PlaceOrder(ctx context.Context, create *model.OrderCreate) (*model.Order, error) {
	log := s.cfg.Log.WithContext(ctx)

	s.sanitize(create)
	if err := s.validator.ValidateOrderCreate(create); err != nil {
		log.Warn("Order validation failed", "customer_ref", create.CustomerRef, "error", err)
		return nil, apperrors.Validation("Invalid order input", map[string]any{"error": err.Error()})
	}
	for i, line := range create.Reservations {
		if err := availability.CheckRange(line.StartDate, line.EndDate); err != nil {
			log.Warn("Order rejected", "customer_ref", create.CustomerRef, "line", i, "error", err)
			return nil, err
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to read settings", err)
	}
	if settings.MaintenanceMode {
		log.Warn("Order rejected during maintenance", "customer_ref", create.CustomerRef)
		return nil, apperrors.Unavailable("Booking")
	}

	var order *model.Order
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.book(ctx, create, settings.Currency)
		return err
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			log.Warn("Order not booked", "customer_ref", create.CustomerRef, "error", err)
			return nil, err
		}
		log.Error("Failed to book order", "customer_ref", create.CustomerRef, "error", err)
		return nil, apperrors.Internal("Failed to book order", err)
	}

	log.Info("Order booked",
		"order_id", order.ID,
		"customer_ref", order.CustomerRef,
		"lines", len(order.Lines),
		"total", order.Total.String(),
	)
	s.publisher.OrderCreated(ctx, order)
	return order, nil
}

// book runs inside the booking transaction. Lines are booked in request
// order; the first line that cannot be booked aborts the whole order.
func (s *orderService) book(ctx context.Context, create *model.OrderCreate, currency string) (*model.Order, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	order := &model.Order{
		ID:            model.NewID(),
		CustomerRef:   create.CustomerRef,
		ContactPhone:  create.ContactPhone,
		Status:        model.OrderPending,
		Currency:      currency,
		Subtotal:      model.ZeroMoney,
		Lines:         make([]model.OrderLine, 0, len(create.Reservations)),
		StatusHistory: []model.StatusChange{{To: model.OrderPending, At: now}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	products := map[string]*model.Product{}
	product := func(id string) (*model.Product, error) {
		if p, ok := products[id]; ok {
			return p, nil
		}
		p, err := s.catalog.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
		return p, nil
	}

	for i, line := range create.Reservations {
		start := line.StartDate.UTC().Truncate(time.Millisecond)
		end := line.EndDate.UTC().Truncate(time.Millisecond)

		unit, err := s.unitFor(ctx, create.ProductID, line.InventoryItemID, start, end)
		if err != nil {
			return nil, err
		}

		p, err := product(unit.ProductID)
		if err != nil {
			return nil, err
		}
		quote, err := availability.ComputeQuote(p, start, end)
		if err != nil {
			return nil, err
		}

		reservation := &model.Reservation{
			ID:        model.NewID(),
			OrderID:   order.ID,
			UnitID:    unit.ID,
			ProductID: unit.ProductID,
			Start:     start,
			End:       end,
			CreatedAt: now,
		}
		if err := s.ledger.Insert(ctx, reservation); err != nil {
			return nil, ledgerError(err, unit.ID, i)
		}

		order.Lines = append(order.Lines, model.OrderLine{
			ReservationID: reservation.ID,
			ProductID:     unit.ProductID,
			UnitID:        unit.ID,
			Start:         start,
			End:           end,
			Quote:         *quote,
		})
		order.Subtotal = order.Subtotal.Add(quote.Total)
	}

	order.Subtotal = order.Subtotal.Rounded()
	order.Total = order.Subtotal

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}
	return order, nil
}

// unitFor returns the pinned unit, or the first free unit of productID.
func (s *orderService) unitFor(ctx context.Context, productID, pinnedID string, start, end time.Time) (*model.InventoryUnit, error) {
	if pinnedID != "" {
		unit, err := s.catalog.GetUnit(ctx, pinnedID)
		if err != nil {
			return nil, err
		}
		if productID != "" && unit.ProductID != productID {
			return nil, apperrors.Validation("Inventory unit does not belong to the ordered product", map[string]any{
				"inventory_item_id": pinnedID,
				"product_id":        productID,
			})
		}
		return unit, nil
	}

	unit, err := s.resolver.FindAvailableUnit(ctx, productID, start, end)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperrors.NoAvailability(productID)
	}
	return unit, nil
}

func ledgerError(err error, unitID string, line int) error {
	details := map[string]any{"inventory_item_id": unitID, "line": line}
	switch {
	case errors.Is(err, reservationserrors.ErrConflict):
		return apperrors.Conflict("The inventory unit is already booked for the requested window").WithDetails(details)
	case errors.Is(err, reservationserrors.ErrUnitInactive):
		return apperrors.Conflict("The inventory unit is not available for booking").WithDetails(details)
	case errors.Is(err, reservationserrors.ErrUnitNotFound):
		return apperrors.NotFoundWithID("Inventory unit", unitID)
	case errors.Is(err, reservationserrors.ErrInvalidRange):
		return apperrors.InvalidRange("start must be before end")
	}
	return fmt.Errorf("failed to reserve unit %s: %w", unitID, err)
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Order", id)
		}
		s.cfg.Log.WithContext(ctx).Error("Failed to retrieve order", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve order", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) ([]*model.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("invalid status filter: " + string(filter.Status))
	}
	filter.CustomerRef = sanitizer.NormalizeRef(filter.CustomerRef)

	var count int64
	var orders []*model.Order
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.orders.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count orders", "error", errCount)
			errCount = apperrors.Internal("Failed to count orders", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		orders, errFind = s.orders.FindAll(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list orders", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve orders", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return orders, count, nil
}

// Confirm records the payment and moves a pending order to confirmed. The
// payment must cover the order total exactly.
func (s *orderService) Confirm(ctx context.Context, id string, payment *model.PaymentConfirmation) (*model.Order, error) {
	if err := s.validator.ValidatePayment(payment); err != nil {
		s.cfg.Log.WithContext(ctx).Warn("Payment validation failed", "order_id", id, "error", err)
		return nil, apperrors.Validation("Invalid payment", map[string]any{"error": err.Error()})
	}

	return s.transition(ctx, id, model.OrderConfirmed, "payment "+payment.Method, func(ctx context.Context, order *model.Order, at time.Time) error {
		if !payment.Amount.Rounded().Equal(order.Total) {
			return apperrors.Validation("Payment amount does not match the order total", map[string]any{
				"amount": payment.Amount.String(),
				"total":  order.Total.String(),
			})
		}
		err := s.orders.SavePayment(ctx, &model.Payment{
			ID:        model.NewID(),
			OrderID:   order.ID,
			Method:    payment.Method,
			Amount:    payment.Amount.Rounded(),
			Reference: sanitizer.NormalizeRef(payment.Reference),
			CreatedAt: at,
		})
		if errors.Is(err, orderserrors.ErrPaymentExists) {
			return apperrors.Conflict("A payment was already recorded for this order")
		}
		return err
	})
}

func (s *orderService) Return(ctx context.Context, id string, note *model.StatusNote) (*model.Order, error) {
	if err := s.validateNote(ctx, id, note); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.OrderReturned, note.Note, nil)
}

// Cancel ends an order and releases its units. The reservations stay
// stored, voided.
func (s *orderService) Cancel(ctx context.Context, id string, note *model.StatusNote) (*model.Order, error) {
	if err := s.validateNote(ctx, id, note); err != nil {
		return nil, err
	}
	return s.cancel(ctx, id, note.Note, false)
}

// cancel with pendingOnly set leaves orders that were confirmed meanwhile alone.
func (s *orderService) cancel(ctx context.Context, id, note string, pendingOnly bool) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderCancelled, note, func(ctx context.Context, order *model.Order, _ time.Time) error {
		if pendingOnly && order.Status != model.OrderPending {
			return apperrors.InvalidTransition(string(order.Status), string(model.OrderCancelled))
		}
		released, err := s.ledger.VoidByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to release reservations: %w", err)
		}
		s.cfg.Log.WithContext(ctx).Debug("Reservations released", "order_id", order.ID, "released", released)
		return nil
	})
}

func (s *orderService) validateNote(ctx context.Context, id string, note *model.StatusNote) error {
	if err := s.validator.ValidateStatusNote(note); err != nil {
		s.cfg.Log.WithContext(ctx).Warn("Status note validation failed", "order_id", id, "error", err)
		return apperrors.Validation("Invalid status note", map[string]any{"error": err.Error()})
	}
	return nil
}

type transitionFunc func(ctx context.Context, order *model.Order, at time.Time) error

// transition moves an order to status `to` in one transaction, running
// within alongside the status update.
func (s *orderService) transition(ctx context.Context, id string, to model.OrderStatus, note string, within transitionFunc) (*model.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}
	log := s.cfg.Log.WithContext(ctx)

	var order *model.Order
	var change model.StatusChange
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, orderserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Order", id)
			}
			return err
		}
		if !order.Status.CanTransition(to) {
			return apperrors.InvalidTransition(string(order.Status), string(to))
		}

		change = model.StatusChange{
			From: order.Status,
			To:   to,
			At:   time.Now().UTC().Truncate(time.Millisecond),
			Note: note,
		}
		if within != nil {
			if err := within(ctx, order, change.At); err != nil {
				return err
			}
		}
		if err := s.orders.UpdateStatus(ctx, id, change); err != nil {
			if errors.Is(err, orderserrors.ErrStatusChanged) {
				return apperrors.Conflict("The order was changed concurrently")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			log.Warn("Order transition rejected", "order_id", id, "to", to, "error", err)
			return nil, err
		}
		log.Error("Failed to update order status", "order_id", id, "to", to, "error", err)
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	order.Status = to
	order.UpdatedAt = change.At
	order.StatusHistory = append(order.StatusHistory, change)

	log.Info("Order status changed", "order_id", id, "from", change.From, "to", to)
	s.publisher.StatusChanged(ctx, order, change)
	return order, nil
}

func (s *orderService) ExpirePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	pending, err := s.orders.FindPendingBefore(ctx, cutoff)
	if err != nil {
		s.cfg.Log.Error("Failed to list pending orders", "error", err)
		return 0, apperrors.Internal("Failed to list pending orders", err)
	}

	note := fmt.Sprintf("expired: not confirmed within %s", olderThan)
	expired := 0
	for _, order := range pending {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.cancel(ctx, order.ID, note, true)
		switch {
		case err == nil:
			expired++
		case apperrors.HasCode(err, apperrors.CodeInvalidTransition), apperrors.HasCode(err, apperrors.CodeConflict):
			// confirmed or cancelled since it was listed
		default:
			return expired, err
		}
	}

	if expired > 0 {
		s.cfg.Log.Info("Expired pending orders", "expired", expired, "cutoff", cutoff)
	}
	return expired, nil
}

func (s *orderService) sanitize(create *model.OrderCreate) {
	create.CustomerRef = sanitizer.NormalizeRef(create.CustomerRef)
	create.ProductID = sanitizer.NormalizeRef(create.ProductID)
	if create.ContactPhone != "" {
		if normalized := sanitizer.NormalizePhone(create.ContactPhone); normalized != "" {
			create.ContactPhone = normalized
		}
	}
	for i := range create.Reservations {
		create.Reservations[i].InventoryItemID = sanitizer.NormalizeRef(create.Reservations[i].InventoryItemID)
	}
}
