// Package config loads, normalizes, and validates megbids configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEGBIDS_SEARCH_ROOT. The Config type carries the search root, name pattern,
// output root, and mapping path handed to every pipeline component.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, an anchored name pattern, and clear validation errors.
package config
