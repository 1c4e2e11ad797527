package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fanpass/internal/models"
)

// TestRedisTicketCacheIntegration exercises the cache against a real Redis
// container.
func TestRedisTicketCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() {
		_ = redisContainer.Terminate(ctx)
	}()

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	defer client.Close()

	cache := NewRedisTicketCache(client, time.Hour)

	// Miss before anything is stored.
	info, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, info)

	stored := &models.TicketInfo{
		TokenID:    42,
		Sector:     "East Stand",
		ClubID:     "10",
		ValidFrom:  "2026-01-01T00:00:00Z",
		ValidUntil: "2026-12-31T00:00:00Z",
		TokenURI:   "ipfs://QmTicket",
		IsValid:    true,
		Details: &models.TicketDetails{
			TokenID:       42,
			PriceFanToken: decimal.RequireFromString("50"),
			Status:        models.StatusForSale,
		},
	}
	require.NoError(t, cache.Set(ctx, 42, stored))

	fetched, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, int64(42), fetched.TokenID)
	assert.Equal(t, "East Stand", fetched.Sector)
	require.NotNil(t, fetched.Details)
	assert.True(t, fetched.Details.PriceFanToken.Equal(decimal.RequireFromString("50")))

	// Keys are per token; another id is still a miss.
	other, err := cache.Get(ctx, 43)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, cache.Invalidate(ctx, 42))
	gone, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
