// Package catalog holds the upscaler model registry.
//
// The registry is an explicit value: the CLI builds one at startup from the
// curated models plus any [[models]] entries in the config, then hands it to
// whatever needs lookups. There is no package-level catalog state.
package catalog
