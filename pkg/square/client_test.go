package square

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/payments"
)

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	if got := c.ensureIdempotencyKey("pref", "custom-key"); got != "custom-key" {
		t.Fatalf("expected provided key, got %q", got)
	}
	if got := c.ensureIdempotencyKey("prefix", ""); !strings.HasPrefix(got, "prefix-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("source_token", "cnon:abc"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeDependency},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusPaymentRequired, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "authentication error",
			status:   http.StatusUnauthorized,
			payload:  `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			wantCode: pkgerrors.CodeDependency,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusConflict,
			payload:  `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
		{
			name:     "card declined",
			status:   http.StatusPaymentRequired,
			payload:  `{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED"}]}`,
			wantCode: pkgerrors.CodeValidation,
		},
	}
	for _, tt := range table {
		err := sqcore.NewAPIError(tt.status, errors.New(tt.payload))
		typed := pkgerrors.As(c.mapSquareError(err, "operation"))
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
	}

	if code := pkgerrors.As(c.mapSquareError(errors.New("dial tcp: timeout"), "op")).Code(); code != pkgerrors.CodeDependency {
		t.Fatalf("transport errors should be dependency errors, got %s", code)
	}
}

func TestCreatePaymentSession(t *testing.T) {
	var captured *sq.CreatePaymentRequest
	paymentID, status := "pay_123", "APPROVED"
	c := &Client{
		locationID: "LOC1",
		logger:     logger.Nop(),
		createPayment: func(_ context.Context, req *sq.CreatePaymentRequest) (*sq.Payment, error) {
			captured = req
			return &sq.Payment{ID: &paymentID, Status: &status}, nil
		},
	}

	orderID := uuid.New()
	session, err := c.CreatePaymentSession(context.Background(), payments.SessionRequest{
		OrderID:     orderID,
		OrderNumber: "SF-1",
		AmountCents: 2599,
		Currency:    enums.CurrencyUSD,
		Mode:        enums.CheckoutModeEmbedded,
		SourceToken: "cnon:card-nonce-ok",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Provider != ProviderName || session.Reference != paymentID || session.Status != status {
		t.Fatalf("unexpected session %+v", session)
	}
	if captured.SourceID != "cnon:card-nonce-ok" || *captured.ReferenceID != orderID.String() {
		t.Fatalf("unexpected request %+v", captured)
	}
	if *captured.LocationID != "LOC1" || *captured.AmountMoney.Amount != 2599 {
		t.Fatalf("location or amount not forwarded")
	}
	if captured.IdempotencyKey != "order-"+orderID.String() {
		t.Fatalf("expected order-scoped idempotency key, got %q", captured.IdempotencyKey)
	}
}

func TestCreatePaymentSessionRejectsRedirectAndMissingToken(t *testing.T) {
	c := &Client{logger: logger.Nop(), createPayment: func(context.Context, *sq.CreatePaymentRequest) (*sq.Payment, error) {
		t.Fatal("square should not be called")
		return nil, nil
	}}

	_, err := c.CreatePaymentSession(context.Background(), payments.SessionRequest{Mode: enums.CheckoutModeRedirect, SourceToken: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for redirect, got %v", err)
	}
	_, err = c.CreatePaymentSession(context.Background(), payments.SessionRequest{Mode: enums.CheckoutModeEmbedded})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing token, got %v", err)
	}
}
