package enums

import "fmt"

// CheckoutMode selects how the shopper continues to payment.
type CheckoutMode string

const (
	CheckoutModeRedirect       CheckoutMode = "redirect"
	CheckoutModeEmbedded       CheckoutMode = "embedded"
	CheckoutModePaymentElement CheckoutMode = "payment_element"
	CheckoutModeExpress        CheckoutMode = "express"
)

var validCheckoutModes = []CheckoutMode{
	CheckoutModeRedirect,
	CheckoutModeEmbedded,
	CheckoutModePaymentElement,
	CheckoutModeExpress,
}

// String implements fmt.Stringer.
func (v CheckoutMode) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CheckoutMode.
func (v CheckoutMode) IsValid() bool {
	for _, candidate := range validCheckoutModes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCheckoutMode converts raw input into a CheckoutMode.
func ParseCheckoutMode(value string) (CheckoutMode, error) {
	for _, candidate := range validCheckoutModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout mode %q", value)
}

// RequiresShippingAddress reports whether the shopper must supply a full
// address. Express wallets provide their own after authorization.
func (v CheckoutMode) RequiresShippingAddress() bool {
	return v != CheckoutModeExpress
}
