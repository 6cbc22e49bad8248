package tax

import (
	"context"
	"sync"
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigurationRepository struct {
	mu      sync.Mutex
	configs map[string]tax.Configuration
}

func newFakeConfigurationRepository() *fakeConfigurationRepository {
	return &fakeConfigurationRepository{configs: make(map[string]tax.Configuration)}
}

func (f *fakeConfigurationRepository) Create(ctx context.Context, cfg tax.Configuration) (tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.configs {
		if c.Jurisdiction == cfg.Jurisdiction && c.Version == cfg.Version {
			return tax.Configuration{}, tax.ErrConfigurationVersionExists
		}
	}
	f.configs[cfg.ID] = cfg
	return cfg, nil
}

func (f *fakeConfigurationRepository) GetByID(ctx context.Context, id string) (tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.configs[id]
	if !ok {
		return tax.Configuration{}, tax.ErrConfigurationNotFound
	}
	return c, nil
}

func (f *fakeConfigurationRepository) GetActive(ctx context.Context, jurisdiction tax.Jurisdiction) (tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.configs {
		if c.Jurisdiction == jurisdiction && c.IsActive {
			return c, nil
		}
	}
	return tax.Configuration{}, tax.ErrNoActiveConfiguration
}

func (f *fakeConfigurationRepository) Activate(ctx context.Context, id string) (tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.configs[id]
	if !ok {
		return tax.Configuration{}, tax.ErrConfigurationNotFound
	}
	for cid, c := range f.configs {
		if c.Jurisdiction == target.Jurisdiction {
			c.IsActive = cid == id
			f.configs[cid] = c
		}
	}
	return f.configs[id], nil
}

func (f *fakeConfigurationRepository) ListByJurisdiction(ctx context.Context, jurisdiction tax.Jurisdiction) ([]tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tax.Configuration
	for _, c := range f.configs {
		if c.Jurisdiction == jurisdiction {
			out = append(out, c)
		}
	}
	return out, nil
}

func zambiaRequest(version int) tax.CreateConfigurationRequest {
	cfg := zambiaConfig()
	return tax.CreateConfigurationRequest{
		Version:              version,
		Country:              "ZM",
		Bands:                cfg.Bands,
		NapsaRate:            cfg.NapsaRate,
		NapsaMaxSalary:       cfg.NapsaMaxSalary,
		NapsaMaxContribution: cfg.NapsaMaxContribution,
		NhimaRate:            cfg.NhimaRate,
		HousingAllowanceRate: cfg.HousingAllowanceRate,
		TransportAllowance:   cfg.TransportAllowance,
		LunchAllowance:       cfg.LunchAllowance,
	}
}

func TestConfigurationService_Create(t *testing.T) {
	svc := NewConfigurationService(newFakeConfigurationRepository())

	cfg, err := svc.Create(context.Background(), zambiaRequest(1))
	require.NoError(t, err)

	assert.True(t, validator.IsValidUUID(cfg.ID))
	assert.False(t, cfg.IsActive)
	assert.Equal(t, tax.RoundingNearest, cfg.RoundingMethod)

	_, err = svc.Create(context.Background(), zambiaRequest(1))
	assert.ErrorIs(t, err, tax.ErrConfigurationVersionExists)
}

func TestConfigurationService_Create_RejectsInvalidBands(t *testing.T) {
	svc := NewConfigurationService(newFakeConfigurationRepository())
	req := zambiaRequest(1)
	req.Bands = req.Bands[1:]

	_, err := svc.Create(context.Background(), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "first band must start at 0", verrs.ToMap()["bands[0].lower_limit"])
}

func TestConfigurationService_ActivateDeactivatesOthers(t *testing.T) {
	svc := NewConfigurationService(newFakeConfigurationRepository())
	ctx := context.Background()

	v1, err := svc.Create(ctx, zambiaRequest(1))
	require.NoError(t, err)
	v2, err := svc.Create(ctx, zambiaRequest(2))
	require.NoError(t, err)

	_, err = svc.GetActive(ctx, tax.Jurisdiction{Country: "ZM"})
	assert.ErrorIs(t, err, tax.ErrNoActiveConfiguration)

	_, err = svc.Activate(ctx, v1.ID)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, v2.ID)
	require.NoError(t, err)

	active, err := svc.GetActive(ctx, tax.Jurisdiction{Country: "ZM"})
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID)

	all, err := svc.List(ctx, tax.Jurisdiction{Country: "ZM"})
	require.NoError(t, err)
	activeCount := 0
	for _, c := range all {
		if c.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestConfigurationService_ActivateUnknown(t *testing.T) {
	svc := NewConfigurationService(newFakeConfigurationRepository())

	_, err := svc.Activate(context.Background(), "missing")
	assert.ErrorIs(t, err, tax.ErrConfigurationNotFound)
}
