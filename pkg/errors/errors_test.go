package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load product")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if !err.Retryable() {
		t.Fatal("dependency errors should be retryable")
	}
	outer := fmt.Errorf("checkout: %w", err)
	if !IsCode(outer, CodeDependency) {
		t.Fatal("expected code lookup through fmt wrapping")
	}
}

func TestConflictDetailsCarryReason(t *testing.T) {
	err := Conflict("insufficient_availability", "not enough stock", map[string]any{"available": 2})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["reason"] != "insufficient_availability" || details["available"] != 2 {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_webhook_events_event_id", TableName: "webhook_events"}
	err := Wrap(CodeInternal, fmt.Errorf("insert: %w", pgErr), "persist event")

	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGConstraint != "ux_webhook_events_event_id" {
		t.Fatalf("postgres fields missing: %+v", dump)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(dump.Chain))
	}
	if SQLState(err) != "23505" {
		t.Fatalf("unexpected sql state %q", SQLState(err))
	}
}

func TestDumpCarriesConflictReason(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Conflict("insufficient_availability", "insufficient availability", nil))

	dump := Dump(err)
	if dump.Code != CodeConflict || dump.Reason != "insufficient_availability" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if dump.Retryable {
		t.Fatal("conflicts are not retryable")
	}
	if dump.PGCode != "" {
		t.Fatalf("unexpected pg code %q", dump.PGCode)
	}

	if dep := Dump(Wrap(CodeDependency, stdErrors.New("redis down"), "idempotency lookup")); !dep.Retryable || dep.Reason != "" {
		t.Fatalf("unexpected dependency dump %+v", dep)
	}
}
