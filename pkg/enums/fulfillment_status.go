package enums

import "fmt"

// FulfillmentStatus tracks shipping progress after payment.
type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled  FulfillmentStatus = "unfulfilled"
	FulfillmentStatusLabelCreated FulfillmentStatus = "label_created"
	FulfillmentStatusShipped      FulfillmentStatus = "shipped"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusUnfulfilled,
	FulfillmentStatusLabelCreated,
	FulfillmentStatusShipped,
}

// String implements fmt.Stringer.
func (v FulfillmentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (v FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
