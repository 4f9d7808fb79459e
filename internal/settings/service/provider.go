package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Provider is the single source of the operator settings. Every change made
// through it is announced on its broker.
type Provider interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, s *model.Settings) (*model.Settings, error)
	// Import merges a previously exported document over the defaults and
	// stores the result.
	Import(ctx context.Context, data []byte) (*model.Settings, error)
	Defaults() model.Settings
}

type fileProvider struct {
	path     string
	defaults model.Settings
	current  model.Settings
	broker   *Broker
	validate *validator.Validate
	log      *logger.Logger
	mu       sync.RWMutex
}

// NewFileProvider loads the settings stored at path. A missing file starts
// from the defaults and is written on the first change.
func NewFileProvider(path, currency string, broker *Broker, log *logger.Logger) (Provider, error) {
	p := &fileProvider{
		path:     path,
		defaults: model.DefaultSettings(currency),
		broker:   broker,
		validate: validator.New(),
		log:      log.Component("settings"),
	}
	p.current = p.defaults

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.log.Info("No settings file, using defaults", "path", path)
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	loaded := p.defaults
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	if err := p.validate.Struct(&loaded); err != nil {
		return nil, fmt.Errorf("settings file %s is invalid: %w", path, err)
	}
	p.current = loaded
	p.log.Info("Settings loaded", "path", path, "last_updated", loaded.LastUpdated)
	return p, nil
}

func (p *fileProvider) Defaults() model.Settings {
	return p.defaults
}

func (p *fileProvider) Get(_ context.Context) (*model.Settings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.current
	return &s, nil
}

func (p *fileProvider) Update(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	if err := p.validate.Struct(s); err != nil {
		p.log.WithContext(ctx).Warn("Settings validation failed", "error", err)
		return nil, apperrors.Validation("Invalid settings", map[string]any{"error": err.Error()})
	}
	return p.store(ctx, *s)
}

func (p *fileProvider) Import(ctx context.Context, data []byte) (*model.Settings, error) {
	merged := p.defaults
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return nil, apperrors.InvalidInput("invalid settings document: " + err.Error())
	}
	return p.Update(ctx, &merged)
}

func (p *fileProvider) store(ctx context.Context, s model.Settings) (*model.Settings, error) {
	s.LastUpdated = time.Now().UTC().Truncate(time.Millisecond)

	p.mu.Lock()
	if err := writeFileAtomic(p.path, s); err != nil {
		p.mu.Unlock()
		p.log.WithContext(ctx).Error("Failed to save settings", "path", p.path, "error", err)
		return nil, apperrors.Internal("Failed to save settings", err)
	}
	p.current = s
	p.mu.Unlock()

	p.broker.Publish(s)
	p.log.WithContext(ctx).Info("Settings updated", "company_name", s.CompanyName, "maintenance_mode", s.MaintenanceMode)
	return &s, nil
}

func writeFileAtomic(path string, s model.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
