package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversInOrder(t *testing.T) {
	b := New[int]()
	ch, unsubscribe := b.Subscribe(context.Background(), "match.1.tick", 8)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		b.Publish("match.1.tick", i)
	}

	for i := 0; i < 5; i++ {
		select {
		case got := <-ch:
			assert.Equal(t, i, got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_DropsOldestOnOverflow(t *testing.T) {
	b := New[int]()
	ch, unsubscribe := b.Subscribe(context.Background(), "t", 2)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		b.Publish("t", i)
	}

	got := <-ch
	assert.Equal(t, 3, got, "oldest entries should have been dropped")
	got = <-ch
	assert.Equal(t, 4, got)
}

func TestBus_UnsubscribeIsPrompt(t *testing.T) {
	b := New[int]()
	_, unsubscribe := b.Subscribe(context.Background(), "t", 1)
	require.Equal(t, 1, b.SubscriberCount("t"))

	unsubscribe()
	require.Eventually(t, func() bool {
		return b.SubscriberCount("t") == 0
	}, time.Second, time.Millisecond)
}

func TestBus_ContextCancelUnsubscribes(t *testing.T) {
	b := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	_, _ = b.Subscribe(ctx, "t", 1)
	require.Equal(t, 1, b.SubscriberCount("t"))

	cancel()
	require.Eventually(t, func() bool {
		return b.SubscriberCount("t") == 0
	}, time.Second, time.Millisecond)
}

func TestBus_PublishWithNoSubscribersIsNoop(t *testing.T) {
	b := New[string]()
	delivered := b.Publish("nobody-listening", "hello")
	assert.Equal(t, 0, delivered)
}
