package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

const fallbackID = "storefront-0"

// GetID names this process in logs and lock ownership: STOREFRONT_INSTANCE_ID,
// then the host name, then a fixed fallback.
func GetID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
