package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "cron-a")
	assert.Equal(t, "cron-a", GetID())
}

func TestGetIDFallsBackToHost(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	assert.NotEmpty(t, GetID())
}
