// Package config persists shared settings for the ecoMAX tools.
//
// The configuration lives in a single YAML file under the platform config
// directory (for example ~/.config/ecomax/config.yaml on Linux) and stores
// the serial bridge address, exchange timeout, and monitor daemon settings.
// Command-line flags always override the file.
//
// Saves are atomic: the file is written to a temporary sibling and renamed
// into place, so a crash mid-write never corrupts an existing config.
//
// A missing file is not an error; Load returns defaults with an empty
// device host, and callers decide whether a host is required.
package config
