package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/flowscope/stream"
	"github.com/drblury/flowscope/transport"
)

func TestSink_PublishesChunks(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	msgs, err := pubSub.Subscribe(context.Background(), "lines")
	require.NoError(t, err)

	// Publishing blocks until the subscriber acks, so writes run concurrently
	// with the receive loop.
	sink := NewSink(pubSub, "lines")
	go func() {
		sink.Write("hello")
		sink.Write([]byte("raw"))
		sink.Write(42)
	}()

	assert.Equal(t, "hello", string(receiveMessage(t, msgs).Payload))
	assert.Equal(t, "raw", string(receiveMessage(t, msgs).Payload))
	assert.Equal(t, "42", string(receiveMessage(t, msgs).Payload))
}

func TestSource_FeedsStageAndEnds(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})

	require.NoError(t, pubSub.Publish("lines", message.NewMessage(watermill.NewUUID(), []byte("one"))))
	require.NoError(t, pubSub.Publish("lines", message.NewMessage(watermill.NewUUID(), []byte("two"))))

	var mu sync.Mutex
	var got []any
	sink := stream.NewWritable(func(v any) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- NewSource(pubSub, "lines").Run(context.Background(), sink)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, pubSub.Close())
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"one", "two"}, got)
	assert.True(t, sink.Ended())
}

func TestBuild_IsRegistered(t *testing.T) {
	tr, err := transport.Build(context.Background(), TransportName, transport.Config{Topic: "lines"})
	require.NoError(t, err)
	assert.NotNil(t, tr.Source)
	assert.NotNil(t, tr.Sink)
}

func receiveMessage(t *testing.T, msgs <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-msgs:
		msg.Ack()
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}
