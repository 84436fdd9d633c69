package config

import (
	"fmt"

	hbterrors "github.com/standardbeagle/hexbait/internal/errors"
)

// Validator validates session configuration and sets smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and fills in any zero-valued fields
// with the package defaults. Returns an error if a field is set to an
// out-of-range value rather than simply left unset.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateView(&cfg.View); err != nil {
		return hbterrors.NewConfigError("view", "", err)
	}
	if err := v.validateSearch(&cfg.Search); err != nil {
		return hbterrors.NewConfigError("search", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateView(view *View) error {
	if view.TileCacheBytes < 0 {
		return fmt.Errorf("view.tile_cache_bytes cannot be negative, got %d", view.TileCacheBytes)
	}
	if view.TileCacheTiles < 0 {
		return fmt.Errorf("view.tile_cache_tiles cannot be negative, got %d", view.TileCacheTiles)
	}
	if view.ZoomLevel < 0 {
		return fmt.Errorf("view.zoom_level cannot be negative, got %d", view.ZoomLevel)
	}
	return nil
}

func (v *Validator) validateSearch(search *SearchPrefs) error {
	if search.MaxResults < 0 {
		return fmt.Errorf("search.max_results cannot be negative, got %d", search.MaxResults)
	}
	return nil
}

// setSmartDefaults fills in any field left at its zero value with the
// package default, rather than leaving the session running with a
// degenerate setting like a zero-sized tile cache.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.View.TileCacheBytes == 0 {
		cfg.View.TileCacheBytes = DefaultTileCacheBytes
	}
	if cfg.View.TileCacheTiles == 0 {
		cfg.View.TileCacheTiles = DefaultTileCacheTiles
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = DefaultMaxSearchResults
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
