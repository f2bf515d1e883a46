// Package config loads and validates saucebatch configuration from an
// optional TOML file. Defaults mirror the CLI flag defaults; the search
// command applies explicit flags on top of the loaded values.
package config
