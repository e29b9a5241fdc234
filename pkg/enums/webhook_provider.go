package enums

import "fmt"

// WebhookProvider identifies the channel a webhook arrived on.
type WebhookProvider string

const (
	WebhookProviderSquare  WebhookProvider = "square"
	WebhookProviderGeneric WebhookProvider = "generic"
)

var validWebhookProviders = []WebhookProvider{
	WebhookProviderSquare,
	WebhookProviderGeneric,
}

// String implements fmt.Stringer.
func (v WebhookProvider) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WebhookProvider.
func (v WebhookProvider) IsValid() bool {
	for _, candidate := range validWebhookProviders {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWebhookProvider converts raw input into a WebhookProvider.
func ParseWebhookProvider(value string) (WebhookProvider, error) {
	for _, candidate := range validWebhookProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook provider %q", value)
}
