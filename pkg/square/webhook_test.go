package square

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event_id":"evt-1"}`)
	url := "https://shop.example.com/api/v1/webhooks/square"
	sig := Sign("key", url, body)

	if !VerifySignature("key", url, body, sig) {
		t.Fatal("expected valid signature")
	}
	if VerifySignature("key", url+"x", body, sig) {
		t.Fatal("signature must cover the notification url")
	}
	if VerifySignature("other", url, body, sig) {
		t.Fatal("signature must depend on the key")
	}
	if VerifySignature("", url, body, sig) || VerifySignature("key", url, body, "") {
		t.Fatal("blank key or signature must fail")
	}
}

func TestParseEventPaymentStatuses(t *testing.T) {
	tests := []struct {
		status string
		want   enums.PaymentEventType
	}{
		{"COMPLETED", enums.PaymentEventTypePaid},
		{"FAILED", enums.PaymentEventTypeFailed},
		{"CANCELED", enums.PaymentEventTypeCancelled},
		{"APPROVED", ""},
	}
	for _, tt := range tests {
		body := []byte(`{"event_id":"evt-` + tt.status + `","type":"payment.updated","data":{"type":"payment","id":"pay_1","object":{"payment":{"id":"pay_1","status":"` + tt.status + `","reference_id":"order-1"}}}}`)
		evt, err := ParseEvent(body)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.status, err)
		}
		if evt.Type != tt.want {
			t.Fatalf("%s: expected %q got %q", tt.status, tt.want, evt.Type)
		}
		if evt.PaymentReference != "pay_1" || evt.OrderReference != "order-1" {
			t.Fatalf("%s: references not extracted: %+v", tt.status, evt)
		}
	}
}

func TestParseEventRefund(t *testing.T) {
	body := []byte(`{"event_id":"evt-r","type":"refund.updated","data":{"object":{"refund":{"id":"r1","status":"COMPLETED","payment_id":"pay_9"}}}}`)
	evt, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if evt.Type != enums.PaymentEventTypeRefunded || evt.PaymentReference != "pay_9" {
		t.Fatalf("unexpected refund event %+v", evt)
	}
}

func TestParseEventErrors(t *testing.T) {
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseEvent([]byte(`{"type":"payment.updated"}`)); err == nil {
		t.Fatal("expected missing event id error")
	}
	if _, err := ParseEvent([]byte(`{"event_id":"e","type":"payment.updated","data":{"object":{}}}`)); err == nil {
		t.Fatal("expected missing payment error")
	}
	evt, err := ParseEvent([]byte(`{"event_id":"e","type":"customer.created"}`))
	if err != nil || evt.Actionable() {
		t.Fatalf("unknown type should parse as non-actionable, got %+v %v", evt, err)
	}
}
