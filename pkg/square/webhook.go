package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// SignatureHeader carries the base64 HMAC-SHA256 of notification URL + body.
const SignatureHeader = "x-square-hmacsha256-signature"

// Square payment and refund statuses.
const (
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
	statusCanceled  = "CANCELED"
)

// VerifySignature checks a Square webhook signature.
func VerifySignature(signatureKey, notificationURL string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signatureKey == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(signatureKey, notificationURL, body)), []byte(signature))
}

// Sign computes the signature Square would send for body.
func Sign(signatureKey, notificationURL string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type webhookPayload struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		ID     string `json:"id"`
		Object struct {
			Payment *struct {
				ID          string `json:"id"`
				Status      string `json:"status"`
				ReferenceID string `json:"reference_id"`
			} `json:"payment"`
			Refund *struct {
				ID        string `json:"id"`
				Status    string `json:"status"`
				PaymentID string `json:"payment_id"`
			} `json:"refund"`
		} `json:"object"`
	} `json:"data"`
}

// Event is a Square notification reduced to what order processing needs.
type Event struct {
	ID               string
	SourceType       string
	Type             enums.PaymentEventType
	OrderReference   string
	PaymentReference string
}

// Actionable reports whether the notification maps to a payment outcome.
func (e Event) Actionable() bool {
	return e.Type != ""
}

// ParseEvent decodes a Square webhook body. Unrecognized types and
// intermediate statuses (APPROVED, PENDING) come back with an empty Type.
func ParseEvent(body []byte) (*Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode square webhook: %w", err)
	}
	if strings.TrimSpace(payload.EventID) == "" {
		return nil, fmt.Errorf("square webhook missing event_id")
	}

	evt := &Event{ID: payload.EventID, SourceType: payload.Type}
	switch payload.Type {
	case "payment.created", "payment.updated":
		payment := payload.Data.Object.Payment
		if payment == nil {
			return nil, fmt.Errorf("square %s missing payment object", payload.Type)
		}
		evt.PaymentReference = payment.ID
		evt.OrderReference = payment.ReferenceID
		switch payment.Status {
		case statusCompleted:
			evt.Type = enums.PaymentEventTypePaid
		case statusFailed:
			evt.Type = enums.PaymentEventTypeFailed
		case statusCanceled:
			evt.Type = enums.PaymentEventTypeCancelled
		}
	case "refund.created", "refund.updated":
		refund := payload.Data.Object.Refund
		if refund == nil {
			return nil, fmt.Errorf("square %s missing refund object", payload.Type)
		}
		evt.PaymentReference = refund.PaymentID
		if refund.Status == statusCompleted {
			evt.Type = enums.PaymentEventTypeRefunded
		}
	}
	return evt, nil
}
