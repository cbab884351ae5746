// Package config loads, normalizes, and validates the photodup TOML
// configuration. Paths are tilde-expanded and made absolute during Load so
// downstream packages never re-resolve them.
package config
