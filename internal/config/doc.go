// Package config loads, normalizes, and validates pixy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the PIXY_UPPY_BIN_DIR environment
// fallback for the bundled tool directory. The Config type centralizes the
// work/data/log locations, explicit tool paths, upscale job defaults, and
// user-declared models.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
