package tax

import "context"

// ConfigurationRepository stores versioned tax configurations.
type ConfigurationRepository interface {
	Create(ctx context.Context, cfg Configuration) (Configuration, error)
	GetByID(ctx context.Context, id string) (Configuration, error)

	// GetActive returns the single active configuration of the jurisdiction
	GetActive(ctx context.Context, jurisdiction Jurisdiction) (Configuration, error)

	// Activate marks id active and deactivates every other configuration of
	// the same jurisdiction in one transaction
	Activate(ctx context.Context, id string) (Configuration, error)

	ListByJurisdiction(ctx context.Context, jurisdiction Jurisdiction) ([]Configuration, error)
}
