package tax

import "context"

// ConfigurationService is the admin surface over tax configurations.
// Configurations are immutable once created; a new version is created and
// activated instead.
type ConfigurationService interface {
	Create(ctx context.Context, req CreateConfigurationRequest) (Configuration, error)
	Activate(ctx context.Context, id string) (Configuration, error)
	Get(ctx context.Context, id string) (Configuration, error)
	GetActive(ctx context.Context, jurisdiction Jurisdiction) (Configuration, error)
	List(ctx context.Context, jurisdiction Jurisdiction) ([]Configuration, error)
}
