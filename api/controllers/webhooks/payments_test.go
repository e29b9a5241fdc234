package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventwebhooks "github.com/angelmondragon/storefront-backend/internal/webhooks"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

const (
	testSignatureKey = "sq-signature-key"
	testNotifyURL    = "https://shop.example.com/api/v1/webhooks/square"
	testSecret       = "generic-secret"
)

type recordingProcessor struct {
	envelopes []eventwebhooks.Envelope
	result    *eventwebhooks.Result
}

func (p *recordingProcessor) Handle(_ context.Context, env eventwebhooks.Envelope) (*eventwebhooks.Result, error) {
	p.envelopes = append(p.envelopes, env)
	if p.result != nil {
		return p.result, nil
	}
	return &eventwebhooks.Result{}, nil
}

func testConfig() config.WebhooksConfig {
	return config.WebhooksConfig{
		SquareSignatureKey:    testSignatureKey,
		SquareNotificationURL: testNotifyURL,
		GenericSecret:         testSecret,
		MaxBodyBytes:          1 << 20,
	}
}

const squareBody = `{"merchant_id":"M1","type":"payment.updated","event_id":"evt-1","data":{"type":"payment","id":"pay-1","object":{"payment":{"id":"pay-1","status":"COMPLETED","reference_id":"SF-1001"}}}}`

func TestSquareWebhookAcceptsSignedEvent(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", strings.NewReader(squareBody))
	req.Header.Set(square.SignatureHeader, square.Sign(testSignatureKey, testNotifyURL, []byte(squareBody)))
	rec := httptest.NewRecorder()

	SquareWebhook(processor, testConfig(), logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, processor.envelopes, 1)
	env := processor.envelopes[0]
	assert.Equal(t, "evt-1", env.EventID)
	assert.Equal(t, enums.WebhookProviderSquare, env.Provider)
	assert.Equal(t, []byte(squareBody), env.Payload)
}

func TestSquareWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", strings.NewReader(squareBody))
	req.Header.Set(square.SignatureHeader, square.Sign("other-key", testNotifyURL, []byte(squareBody)))
	rec := httptest.NewRecorder()

	SquareWebhook(processor, testConfig(), logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, processor.envelopes)
}

func TestSquareWebhookRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	body := `{"type":`
	processor := &recordingProcessor{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", strings.NewReader(body))
	req.Header.Set(square.SignatureHeader, square.Sign(testSignatureKey, testNotifyURL, []byte(body)))
	rec := httptest.NewRecorder()

	SquareWebhook(processor, testConfig(), logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, processor.envelopes)
}

func TestPaymentsWebhookReportsReplay(t *testing.T) {
	t.Parallel()

	body := `{"id":"evt-9","type":"payment.paid","order_id":"SF-1001"}`
	processor := &recordingProcessor{result: &eventwebhooks.Result{Replay: true}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(body))
	req.Header.Set(eventwebhooks.GenericSignatureHeader, eventwebhooks.SignGeneric(testSecret, []byte(body)))
	rec := httptest.NewRecorder()

	PaymentsWebhook(processor, testConfig(), logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"replay":true}}`, rec.Body.String())
	require.Len(t, processor.envelopes, 1)
	assert.Equal(t, "evt-9", processor.envelopes[0].EventID)
}

func TestPaymentsWebhookRejectsUnsignedAndOversized(t *testing.T) {
	t.Parallel()

	body := `{"id":"evt-9","type":"payment.paid","order_id":"SF-1001"}`
	processor := &recordingProcessor{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PaymentsWebhook(processor, testConfig(), logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cfg := testConfig()
	cfg.MaxBodyBytes = 8
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(body))
	req.Header.Set(eventwebhooks.GenericSignatureHeader, eventwebhooks.SignGeneric(testSecret, []byte(body)))
	rec = httptest.NewRecorder()
	PaymentsWebhook(processor, cfg, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, processor.envelopes)
}
