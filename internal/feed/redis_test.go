package feed

import (
	"context"
	"os"
	"testing"

	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("KITS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KITS_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRedis(client, "kits-test-"+uuid.NewString(), logger.NewNop())
	events, err := r.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, Event{OrganizationID: "org-1", Kind: KindTransferEvent}))
	got := receive(t, events)
	assert.Equal(t, KindTransferEvent, got.Kind)
}
