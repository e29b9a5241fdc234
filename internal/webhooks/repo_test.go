package webhooks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestTruncateErrorKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncateError("short", 10))
	assert.Equal(t, "abcd", truncateError("abcdef", 4))
	// "é" is two bytes starting at index 3.
	assert.Equal(t, "abc", truncateError("abcé", 4))
	// "€" is three bytes starting at index 1.
	assert.Equal(t, "a", truncateError("a€b", 2))
	assert.Equal(t, "a", truncateError("a€b", 3))
	assert.Equal(t, "a€", truncateError("a€b", 4))
}

func TestMarkFailedStoresValidUTF8AtLimit(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	event := &models.WebhookEvent{
		EventID:  "evt-long-error",
		Provider: enums.WebhookProviderSquare,
		Type:     string(enums.PaymentEventTypePaid),
		Payload:  `{}`,
	}
	require.NoError(t, repo.Create(ctx, event))

	// One ASCII byte then two-byte runes puts a rune across the limit.
	cause := errors.New("x" + strings.Repeat("é", maxStoredErrorLen))
	require.NoError(t, repo.MarkFailed(ctx, event.ID, nil, cause))

	stored, err := repo.FindByEventID(ctx, "evt-long-error")
	require.NoError(t, err)
	require.NotNil(t, stored.Error)
	assert.True(t, utf8.ValidString(*stored.Error))
	assert.Len(t, *stored.Error, maxStoredErrorLen-1)
	assert.Equal(t, 1, stored.Attempts)
	assert.False(t, stored.Processed)
}
