// Package config loads the server's YAML configuration, expanding ${VAR}
// environment references and parsing duration strings before validation.
package config
