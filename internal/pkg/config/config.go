// Package config reads application settings from a file, the environment and
// built-in defaults.
package config

import (
	"io"
	"time"
)

// Config is the read side of application configuration. Missing keys yield
// the zero value.
type Config interface {
	io.Closer

	GetInt(key string) int
	GetInt32(key string) int32
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetString(key string) string

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMillisecond reads an integer number of milliseconds.
	GetMillisecond(key string) time.Duration

	// GetBinary reads a base64 value. Invalid base64 yields nil.
	GetBinary(key string) []byte
	// GetArray reads a comma separated list, dropping empty elements.
	GetArray(key string) []string
}
