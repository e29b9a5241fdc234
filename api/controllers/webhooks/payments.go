package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	eventwebhooks "github.com/angelmondragon/storefront-backend/internal/webhooks"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

// EventProcessor applies an authenticated payment event.
type EventProcessor interface {
	Handle(ctx context.Context, env eventwebhooks.Envelope) (*eventwebhooks.Result, error)
}

type verifyFunc func(body []byte, r *http.Request) bool

type parseFunc func(body []byte) (eventwebhooks.Envelope, error)

// SquareWebhook authenticates a Square notification and applies its payment
// outcome to the referenced order.
func SquareWebhook(processor EventProcessor, cfg config.WebhooksConfig, logg *logger.Logger) http.HandlerFunc {
	verify := func(body []byte, r *http.Request) bool {
		return square.VerifySignature(cfg.SquareSignatureKey, cfg.SquareNotificationURL, body, r.Header.Get(square.SignatureHeader))
	}
	return handle(processor, cfg.MaxBodyBytes, verify, eventwebhooks.ParseSquare, logg)
}

// PaymentsWebhook accepts canonical payment events signed with the shared
// webhook secret.
func PaymentsWebhook(processor EventProcessor, cfg config.WebhooksConfig, logg *logger.Logger) http.HandlerFunc {
	verify := func(body []byte, r *http.Request) bool {
		return eventwebhooks.VerifyGeneric(cfg.GenericSecret, body, r.Header.Get(eventwebhooks.GenericSignatureHeader))
	}
	return handle(processor, cfg.MaxBodyBytes, verify, eventwebhooks.ParseGeneric, logg)
}

func handle(processor EventProcessor, maxBytes int64, verify verifyFunc, parse parseFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if processor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook processor unavailable"))
			return
		}

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook body too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if !verify(body, r) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		env, err := parse(body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ctx = logg.WithEventID(ctx, env.EventID)
		result, err := processor.Handle(ctx, env)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
