// Package config provides the shared loading primitives used by the bot and
// gateway configuration roots: format-aware file decoding, a Duration type
// that reads human-readable strings, and environment loading from .env files.
//
// Subsystem configs follow the same convention throughout the module: each
// declares a Config struct, a DefaultConfig constructor, and a Merge method
// that applies non-zero values from a loaded source onto the defaults.
package config
