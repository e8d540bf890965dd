package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medbackoffice/internal/adapters/events"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	redisclient "github.com/zatekoja/medbackoffice/internal/infrastructure/clients/redis"
)

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	bus := events.NewRedisEventBus(client)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, providers.EventChannelEntityChanges)
	require.NoError(t, err)

	event := &entities.EntityChangedEvent{
		ID:         "evt-1",
		EntityType: entities.TypeClaim,
		Operation:  entities.ChangeDelete,
		EntityIDs:  []string{"c1"},
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(ctx, providers.EventChannelEntityChanges, event))

	select {
	case got := <-ch:
		require.NotNil(t, got)
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, entities.TypeClaim, got.EntityType)
		assert.Equal(t, []string{"c1"}, got.EntityIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
