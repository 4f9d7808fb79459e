package service_test

import (
	"context"
	availability "smartrentals/internal/availability/service"
	catalogrepo "smartrentals/internal/catalog/repository"
	catalog "smartrentals/internal/catalog/service"
	catalogvalidator "smartrentals/internal/catalog/validator"
	"smartrentals/internal/migrations/sqlschema/sqltest"
	orderrepo "smartrentals/internal/orders/repository"
	"smartrentals/internal/orders/service"
	"smartrentals/internal/orders/validator"
	ledgerrepo "smartrentals/internal/reservations/repository"
	"smartrentals/pkg/config"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

type stubSettings struct {
	mu       sync.Mutex
	settings model.Settings
	reads    int
}

func (s *stubSettings) Get(context.Context) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	out := s.settings
	return &out, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	changes []model.StatusChange
}

func (p *recordingPublisher) OrderCreated(_ context.Context, order *model.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, order.ID)
}

func (p *recordingPublisher) StatusChanged(_ context.Context, _ *model.Order, change model.StatusChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

// engine wires the real SQL-backed stack over a throwaway SQLite database.
type engine struct {
	catalog   catalog.CatalogService
	ledger    ledgerrepo.Ledger
	orders    service.OrderService
	settings  *stubSettings
	publisher *recordingPublisher
}

func newEngine(t testing.TB) *engine {
	t.Helper()
	d := sqltest.NewDB(t)
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	cfg := &config.Config{Log: log}
	tx := sqldb.NewTransactionManager(d)
	ledger := ledgerrepo.NewSQLLedger(d)

	cat := catalog.NewCatalogService(
		catalogrepo.NewSQLProductRepository(d),
		catalogrepo.NewSQLUnitRepository(d),
		ledger,
		tx,
		catalogvalidator.NewCatalogValidator(log),
		cfg,
	)
	e := &engine{
		catalog:   cat,
		ledger:    ledger,
		settings:  &stubSettings{settings: model.DefaultSettings("USD")},
		publisher: &recordingPublisher{},
	}
	e.orders = service.NewOrderService(
		orderrepo.NewSQLOrderRepository(d),
		ledger,
		availability.NewResolver(cat, ledger, log),
		cat,
		e.settings,
		tx,
		e.publisher,
		validator.NewOrderValidator(log),
		cfg,
	)
	return e
}

type productSpec struct {
	hourly   string
	daily    string
	minHours int64
	maxHours int64
}

// product defines a product; it comes with one active unit.
func (e *engine) product(t testing.TB, spec productSpec) *model.Product {
	t.Helper()
	create := &model.ProductCreate{Name: "Concrete Mixer", Published: true}
	if spec.hourly != "" {
		m := model.MustMoney(spec.hourly)
		create.HourlyRate = &m
	}
	if spec.daily != "" {
		m := model.MustMoney(spec.daily)
		create.DailyRate = &m
	}
	if spec.minHours > 0 {
		create.MinHours = &spec.minHours
	}
	if spec.maxHours > 0 {
		create.MaxHours = &spec.maxHours
	}
	p, err := e.catalog.CreateProduct(context.Background(), create)
	require.NoError(t, err)
	return p
}

func (e *engine) units(t testing.TB, productID string) []*model.InventoryUnit {
	t.Helper()
	units, err := e.catalog.ListUnits(context.Background(), productID)
	require.NoError(t, err)
	return units
}

func (e *engine) addUnit(t testing.TB, productID string, active bool) *model.InventoryUnit {
	t.Helper()
	unit, err := e.catalog.CreateUnit(context.Background(), &model.InventoryUnitCreate{
		ProductID: productID,
		Label:     "Spare",
		Active:    &active,
	})
	require.NoError(t, err)
	return unit
}

func (e *engine) book(productID string, windows ...service.Window) (*model.Order, error) {
	return e.orders.BookOrder(context.Background(), productID, windows, "cust-1")
}

func window(from, to int) service.Window {
	return service.Window{Start: at(from), End: at(to)}
}
