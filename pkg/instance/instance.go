package instance

import (
	"os"

	"github.com/shopfront/retail-backend/pkg/env"
)

// ID names the running process for lock ownership and log fields.
// RETAIL_INSTANCE_ID (or INSTANCE_ID) wins, then the hostname.
func ID() string {
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}
