// Package config loads freshbot configuration from a YAML file with
// environment variable expansion, falling back to the environment alone,
// and serves it as an atomically swappable snapshot.
package config
