package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := client.Subscribe(ctx, "billing.events")
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "billing.events", map[string]string{"accountId": "acc-1"}))

	select {
	case msg := <-msgs:
		assert.Equal(t, "billing.events", msg.Channel)
		var body map[string]string
		require.NoError(t, msg.Decode(&body))
		assert.Equal(t, "acc-1", body["accountId"])
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(Options{Addr: addr, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
