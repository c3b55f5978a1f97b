// Package config defines the provisioning configuration for pvemesh-ctl.
//
// Configuration is layered: documented defaults, then the optional TOML
// file at /etc/pvemesh/config.toml, then PVEMESH_* environment variables.
// The effective config is validated at startup, before any external
// command runs.
//
//	cfg, err := config.Load(config.DefaultConfigPath)
//
// Every field of Config documents its default; SetupKey is the only
// required input and its absence is a fatal, pre-side-effect error.
package config
