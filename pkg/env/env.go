package env

import (
	"os"
	"strings"
)

// Get returns the named environment variable, or fallback when it is unset
// or blank.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}
