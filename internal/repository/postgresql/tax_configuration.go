package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type taxConfigurationRepository struct {
	db *database.DB
}

func NewTaxConfigurationRepository(db *database.DB) tax.ConfigurationRepository {
	return &taxConfigurationRepository{db: db}
}

const taxConfigurationColumns = `
	id, version, country, state, bands,
	napsa_rate, napsa_max_salary, napsa_max_contribution,
	nhima_rate, nhima_max_salary,
	housing_allowance_rate, transport_allowance, lunch_allowance,
	rounding_method, is_active, created_at, updated_at
`

func scanTaxConfiguration(row pgx.Row) (tax.Configuration, error) {
	var c tax.Configuration
	var bands []byte
	if err := row.Scan(
		&c.ID, &c.Version, &c.Jurisdiction.Country, &c.Jurisdiction.State, &bands,
		&c.NapsaRate, &c.NapsaMaxSalary, &c.NapsaMaxContribution,
		&c.NhimaRate, &c.NhimaMaxSalary,
		&c.HousingAllowanceRate, &c.TransportAllowance, &c.LunchAllowance,
		&c.RoundingMethod, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return tax.Configuration{}, err
	}
	if err := json.Unmarshal(bands, &c.Bands); err != nil {
		return tax.Configuration{}, fmt.Errorf("failed to decode tax bands: %w", err)
	}
	return c, nil
}

// Create implements tax.ConfigurationRepository. New configurations are
// stored inactive.
func (r *taxConfigurationRepository) Create(ctx context.Context, c tax.Configuration) (tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	bands, err := json.Marshal(c.Bands)
	if err != nil {
		return tax.Configuration{}, fmt.Errorf("failed to encode tax bands: %w", err)
	}

	query := `
		INSERT INTO tax_configurations (
			id, version, country, state, bands,
			napsa_rate, napsa_max_salary, napsa_max_contribution,
			nhima_rate, nhima_max_salary,
			housing_allowance_rate, transport_allowance, lunch_allowance,
			rounding_method, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE)
		RETURNING ` + taxConfigurationColumns

	created, err := scanTaxConfiguration(q.QueryRow(ctx, query,
		c.ID, c.Version, c.Jurisdiction.Country, c.Jurisdiction.State, bands,
		c.NapsaRate, c.NapsaMaxSalary, c.NapsaMaxContribution,
		c.NhimaRate, c.NhimaMaxSalary,
		c.HousingAllowanceRate, c.TransportAllowance, c.LunchAllowance,
		c.RoundingMethod,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return tax.Configuration{}, tax.ErrConfigurationVersionExists
		}
		return tax.Configuration{}, fmt.Errorf("failed to create tax configuration: %w", err)
	}

	return created, nil
}

// GetByID implements tax.ConfigurationRepository.
func (r *taxConfigurationRepository) GetByID(ctx context.Context, id string) (tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taxConfigurationColumns + ` FROM tax_configurations WHERE id = $1`

	c, err := scanTaxConfiguration(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return tax.Configuration{}, tax.ErrConfigurationNotFound
		}
		return tax.Configuration{}, fmt.Errorf("failed to get tax configuration: %w", err)
	}

	return c, nil
}

// GetActive implements tax.ConfigurationRepository.
func (r *taxConfigurationRepository) GetActive(ctx context.Context, jurisdiction tax.Jurisdiction) (tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + taxConfigurationColumns + `
		FROM tax_configurations
		WHERE country = $1 AND state = $2 AND is_active
	`

	c, err := scanTaxConfiguration(q.QueryRow(ctx, query, jurisdiction.Country, jurisdiction.State))
	if err != nil {
		if err == pgx.ErrNoRows {
			return tax.Configuration{}, tax.ErrNoActiveConfiguration
		}
		return tax.Configuration{}, fmt.Errorf("failed to get active tax configuration: %w", err)
	}

	return c, nil
}

// Activate implements tax.ConfigurationRepository.
func (r *taxConfigurationRepository) Activate(ctx context.Context, id string) (tax.Configuration, error) {
	var activated tax.Configuration

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var country, state string
		err := tx.QueryRow(ctx,
			`SELECT country, state FROM tax_configurations WHERE id = $1 FOR UPDATE`, id,
		).Scan(&country, &state)
		if err != nil {
			if err == pgx.ErrNoRows {
				return tax.ErrConfigurationNotFound
			}
			return fmt.Errorf("failed to lock tax configuration: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE tax_configurations
			SET is_active = FALSE, updated_at = NOW()
			WHERE country = $1 AND state = $2 AND is_active AND id <> $3
		`, country, state, id)
		if err != nil {
			return fmt.Errorf("failed to deactivate tax configurations: %w", err)
		}

		activated, err = scanTaxConfiguration(tx.QueryRow(ctx, `
			UPDATE tax_configurations
			SET is_active = TRUE, updated_at = NOW()
			WHERE id = $1
			RETURNING `+taxConfigurationColumns, id))
		if err != nil {
			return fmt.Errorf("failed to activate tax configuration: %w", err)
		}
		return nil
	})
	if err != nil {
		return tax.Configuration{}, err
	}

	return activated, nil
}

// ListByJurisdiction implements tax.ConfigurationRepository.
func (r *taxConfigurationRepository) ListByJurisdiction(ctx context.Context, jurisdiction tax.Jurisdiction) ([]tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + taxConfigurationColumns + `
		FROM tax_configurations
		WHERE country = $1 AND state = $2
		ORDER BY version DESC
	`

	rows, err := q.Query(ctx, query, jurisdiction.Country, jurisdiction.State)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax configurations: %w", err)
	}
	defer rows.Close()

	configs := []tax.Configuration{}
	for rows.Next() {
		c, err := scanTaxConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax configuration: %w", err)
		}
		configs = append(configs, c)
	}

	return configs, rows.Err()
}
