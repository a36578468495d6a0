package env

import "os"

// Get reads key from the process environment, falling back when the
// variable is unset or blank. Blank counts as unset so a compose file can
// leave a value empty without clobbering the default.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
