package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

const (
	GenericSignatureHeader = "X-Webhook-Signature"
	genericSignaturePrefix = "sha256="
)

type genericPayload struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	OrderID          string `json:"order_id"`
	PaymentReference string `json:"payment_reference"`
}

// SignGeneric returns the header value for body.
func SignGeneric(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return genericSignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifyGeneric checks a sha256=<hex> signature in constant time.
func VerifyGeneric(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	got, ok := strings.CutPrefix(strings.TrimSpace(header), genericSignaturePrefix)
	if !ok {
		return false
	}
	sig, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}

// ParseGeneric decodes a canonical payment event. Unknown types are kept
// as the source type and produce no state change.
func ParseGeneric(body []byte) (Envelope, error) {
	var payload genericPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Envelope{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body")
	}
	if strings.TrimSpace(payload.ID) == "" {
		return Envelope{}, pkgerrors.New(pkgerrors.CodeValidation, "webhook event id is required")
	}

	env := Envelope{
		EventID:          strings.TrimSpace(payload.ID),
		Provider:         enums.WebhookProviderGeneric,
		SourceType:       payload.Type,
		OrderReference:   strings.TrimSpace(payload.OrderID),
		PaymentReference: strings.TrimSpace(payload.PaymentReference),
		Payload:          body,
	}
	if eventType, err := enums.ParsePaymentEventType(payload.Type); err == nil {
		env.Type = eventType
		if env.OrderReference == "" && env.PaymentReference == "" {
			return Envelope{}, pkgerrors.New(pkgerrors.CodeValidation, "order_id or payment_reference is required")
		}
	}
	return env, nil
}

// ParseSquare decodes a Square notification into an envelope.
func ParseSquare(body []byte) (Envelope, error) {
	evt, err := square.ParseEvent(body)
	if err != nil {
		return Envelope{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed square webhook")
	}
	return Envelope{
		EventID:          evt.ID,
		Provider:         enums.WebhookProviderSquare,
		SourceType:       evt.SourceType,
		Type:             evt.Type,
		OrderReference:   evt.OrderReference,
		PaymentReference: evt.PaymentReference,
		Payload:          body,
	}, nil
}
