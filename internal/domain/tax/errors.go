package tax

import "errors"

var (
	ErrConfigurationNotFound      = errors.New("tax configuration not found")
	ErrNoActiveConfiguration      = errors.New("no active tax configuration for jurisdiction")
	ErrConfigurationVersionExists = errors.New("tax configuration version already exists for jurisdiction")
)
