// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrMissingRequiredConfig = errors.New("missing required configuration")
	ErrInsecureConfig        = errors.New("insecure configuration")
)

// Validator checks one aspect of a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// Validate runs the validators that apply to the configured environment
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &LedgerValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// BasicValidator checks struct tags on every section
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			if verrs[0].Tag() == "required" || strings.HasPrefix(verrs[0].Tag(), "required_") {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, strings.Join(fields, ", "))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LedgerValidator checks the schedules the worker registers
type LedgerValidator struct{}

// Validate parses both cron specs; empty specs disable the job
func (v *LedgerValidator) Validate(cfg *Config) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"low stock scan": cfg.Ledger.LowStockScanCron,
		"reconcile":      cfg.Ledger.ReconcileCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%w: %s schedule %q: %v", ErrInvalidConfig, name, spec, err)
		}
	}
	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if cfg.Database.Password == "" || cfg.Database.Password == "stockledger_dev" {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}

	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("%w: database SSL must be enabled in production", ErrInsecureConfig)
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("%w: secure headers must be enabled in production", ErrInsecureConfig)
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: allowed origins", ErrMissingRequiredConfig)
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("%w: wildcard origin (*) not allowed in production", ErrInsecureConfig)
		}
	}

	if cfg.Server.EnablePprof {
		return fmt.Errorf("%w: pprof must be disabled in production", ErrInsecureConfig)
	}

	return nil
}
