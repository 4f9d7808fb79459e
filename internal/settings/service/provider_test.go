package service

import (
	"context"
	"os"
	"path/filepath"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func newProvider(t *testing.T) (Provider, *Broker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	broker := NewBroker()
	p, err := NewFileProvider(path, "EUR", broker, testLogger())
	require.NoError(t, err)
	return p, broker, path
}

func TestFileProvider_DefaultsWhenMissing(t *testing.T) {
	p, _, _ := newProvider(t)

	s, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RSLAF Machine Rentals", s.CompanyName)
	assert.Equal(t, "EUR", s.Currency)
	assert.False(t, s.MaintenanceMode)
}

func TestFileProvider_UpdatePersistsAndPublishes(t *testing.T) {
	p, broker, path := newProvider(t)
	_, updates := broker.Subscribe()

	s, _ := p.Get(context.Background())
	s.CompanyName = "Acme Plant Hire"
	s.MaintenanceMode = true

	saved, err := p.Update(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, saved.LastUpdated.IsZero())

	select {
	case got := <-updates:
		assert.Equal(t, "Acme Plant Hire", got.CompanyName)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	reloaded, err := NewFileProvider(path, "EUR", NewBroker(), testLogger())
	require.NoError(t, err)
	got, _ := reloaded.Get(context.Background())
	assert.Equal(t, "Acme Plant Hire", got.CompanyName)
	assert.True(t, got.MaintenanceMode)
}

func TestFileProvider_UpdateRequiresCompanyAndCurrency(t *testing.T) {
	p, _, _ := newProvider(t)

	_, err := p.Update(context.Background(), &model.Settings{Currency: "USD"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = p.Update(context.Background(), &model.Settings{CompanyName: "Acme", Currency: "usd"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestFileProvider_ImportMergesOverDefaults(t *testing.T) {
	p, _, _ := newProvider(t)

	s, err := p.Import(context.Background(), []byte(`{"companyName":"Imported","theme":"dark"}`))
	require.NoError(t, err)
	assert.Equal(t, "Imported", s.CompanyName)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, "EUR", s.Currency)
	assert.True(t, s.EmailNotifications)
}

func TestFileProvider_ImportRejectsUnknownFields(t *testing.T) {
	p, _, _ := newProvider(t)

	_, err := p.Import(context.Background(), []byte(`{"companyName":"X","colour":"red"}`))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestNewFileProvider_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"currency":"dollars"}`), 0o600))

	_, err := NewFileProvider(path, "USD", NewBroker(), testLogger())
	assert.Error(t, err)
}

func TestBroker_KeepsLatestForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()

	b.Publish(model.Settings{CompanyName: "first"})
	b.Publish(model.Settings{CompanyName: "second"})

	got := <-ch
	assert.Equal(t, "second", got.CompanyName)

	b.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
}
