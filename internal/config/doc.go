// Package config loads, normalizes, and validates trainsweep configuration data.
//
// It supplies repository defaults (the scan root, the PrepaidTravelCost
// target, the trace_time/resource_usage conditions and the cuda device),
// expands user paths including tilde shortcuts, reads TOML files, and honours
// environment fallbacks such as TRAINSWEEP_ROOT and TRAINSWEEP_DEVICE.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical policy names, and clear validation errors.
package config
