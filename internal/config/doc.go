// Package config holds the run configuration: built-in defaults, an
// optional TOML config file, and the command-line flags layered on top.
package config
