// Package channel provides an in-memory Watermill Go channel transport for
// flowscope pipelines. This transport is useful for testing and local
// development, and as the template for bridging real brokers.
package channel

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/flowscope/stream"
	"github.com/drblury/flowscope/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	transport.Register(TransportName, Build)
}

// Build creates a new Go channel transport publishing and subscribing on
// cfg.Topic.
func Build(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	pub, sub := Factory(gochannel.Config{}, watermill.NopLogger{})
	return transport.Transport{
		Source: NewSource(sub, cfg.Topic),
		Sink:   NewSink(pub, cfg.Topic),
	}, nil
}

// Source feeds messages from a Watermill subscriber into a stage.
type Source struct {
	sub   message.Subscriber
	topic string
}

// NewSource wraps sub as a pipeline source for topic.
func NewSource(sub message.Subscriber, topic string) *Source {
	return &Source{sub: sub, topic: topic}
}

// Run subscribes and writes each message payload into dst as a string chunk,
// acking after the write is accepted by the pipeline. End-of-input propagates
// when the subscription closes.
func (s *Source) Run(ctx context.Context, dst stream.Stage) error {
	ch, err := s.sub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}
	for msg := range ch {
		dst.Write(string(msg.Payload))
		msg.Ack()
	}
	return dst.End()
}

// NewSink returns a writable stage publishing each chunk to topic.
func NewSink(pub message.Publisher, topic string, opts ...stream.Options) stream.Stage {
	return stream.NewWritable(func(v any) error {
		return pub.Publish(topic, message.NewMessage(watermill.NewUUID(), payloadOf(v)))
	}, opts...)
}

func payloadOf(v any) message.Payload {
	switch t := v.(type) {
	case []byte:
		return t
	case string:
		return []byte(t)
	default:
		return []byte(fmt.Sprintf("%v", t))
	}
}
