package tax

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/google/uuid"
)

type ConfigurationServiceImpl struct {
	repo tax.ConfigurationRepository
}

func NewConfigurationService(repo tax.ConfigurationRepository) tax.ConfigurationService {
	return &ConfigurationServiceImpl{repo: repo}
}

// Create stores a new inactive configuration after validating it.
func (s *ConfigurationServiceImpl) Create(ctx context.Context, req tax.CreateConfigurationRequest) (tax.Configuration, error) {
	cfg := req.Configuration()
	if err := cfg.Validate(); err != nil {
		return tax.Configuration{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return tax.Configuration{}, fmt.Errorf("failed to generate configuration id: %w", err)
	}
	cfg.ID = id.String()
	cfg.IsActive = false

	created, err := s.repo.Create(ctx, cfg)
	if err != nil {
		if errors.Is(err, tax.ErrConfigurationVersionExists) {
			return tax.Configuration{}, err
		}
		return tax.Configuration{}, fmt.Errorf("failed to create tax configuration: %w", err)
	}

	slog.Info("Tax configuration created",
		"id", created.ID,
		"jurisdiction", created.Jurisdiction.String(),
		"version", created.Version,
	)
	return created, nil
}

// Activate makes id the only active configuration of its jurisdiction.
// A configuration that fails validation is never activated.
func (s *ConfigurationServiceImpl) Activate(ctx context.Context, id string) (tax.Configuration, error) {
	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return tax.Configuration{}, err
	}
	if err := cfg.Validate(); err != nil {
		return tax.Configuration{}, err
	}

	activated, err := s.repo.Activate(ctx, id)
	if err != nil {
		return tax.Configuration{}, fmt.Errorf("failed to activate tax configuration: %w", err)
	}

	slog.Info("Tax configuration activated",
		"id", activated.ID,
		"jurisdiction", activated.Jurisdiction.String(),
		"version", activated.Version,
	)
	return activated, nil
}

func (s *ConfigurationServiceImpl) Get(ctx context.Context, id string) (tax.Configuration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ConfigurationServiceImpl) GetActive(ctx context.Context, jurisdiction tax.Jurisdiction) (tax.Configuration, error) {
	return s.repo.GetActive(ctx, jurisdiction)
}

func (s *ConfigurationServiceImpl) List(ctx context.Context, jurisdiction tax.Jurisdiction) ([]tax.Configuration, error) {
	return s.repo.ListByJurisdiction(ctx, jurisdiction)
}
