// Package env reads the few settings needed before config.Load runs, such
// as the log format. A RETAIL_ prefixed name overrides the bare one.
package env

import (
	"os"
	"strings"
)

const Prefix = "RETAIL_"

// Get returns RETAIL_<key>, then <key>, then fallback. Blank values count
// as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
