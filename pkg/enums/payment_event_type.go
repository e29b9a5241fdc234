package enums

import "fmt"

// PaymentEventType is the normalized type of an asynchronous payment outcome.
type PaymentEventType string

const (
	PaymentEventTypePaid      PaymentEventType = "payment.paid"
	PaymentEventTypeFailed    PaymentEventType = "payment.failed"
	PaymentEventTypeCancelled PaymentEventType = "payment.cancelled"
	PaymentEventTypeRefunded  PaymentEventType = "payment.refunded"
)

var validPaymentEventTypes = []PaymentEventType{
	PaymentEventTypePaid,
	PaymentEventTypeFailed,
	PaymentEventTypeCancelled,
	PaymentEventTypeRefunded,
}

// String implements fmt.Stringer.
func (v PaymentEventType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentEventType.
func (v PaymentEventType) IsValid() bool {
	for _, candidate := range validPaymentEventTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentEventType converts raw input into a PaymentEventType.
func ParsePaymentEventType(value string) (PaymentEventType, error) {
	for _, candidate := range validPaymentEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event type %q", value)
}

// ReleasesAllocation reports whether the outcome gives reserved stock back.
func (v PaymentEventType) ReleasesAllocation() bool {
	return v == PaymentEventTypeFailed || v == PaymentEventTypeCancelled
}
