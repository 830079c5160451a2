package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemory_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemory()

	a, err := m.Subscribe(ctx)
	require.NoError(t, err)
	b, err := m.Subscribe(ctx)
	require.NoError(t, err)

	ev := Event{OrganizationID: "org-1", Kind: KindCompletion, ScenarioID: "fog-house", KitNumber: 1}
	require.NoError(t, m.Publish(ctx, ev))

	assert.Equal(t, ev, receive(t, a))
	assert.Equal(t, ev, receive(t, b))
}

func TestMemory_UnsubscribeOnCancel(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	require.NoError(t, m.Publish(context.Background(), Event{Kind: KindCompletion}))
}
