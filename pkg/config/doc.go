// Package config loads, defaults and validates the YAML configuration.
//
// Typical usage:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Environment variables with the WARDEN_ prefix override file values; see
// LoadConfigWithEnvOverrides for the full list.
package config
