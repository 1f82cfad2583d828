package valkey

import (
	"context"

	valkeylib "github.com/valkey-io/valkey-go"
)

// PubSub publishes and receives raw payloads on prefixed channels.
type PubSub struct {
	client *Client
}

func NewPubSub(client *Client) *PubSub {
	return &PubSub{client: client}
}

func (p *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	inner := p.client.Inner()
	cmd := inner.B().Publish().Channel(p.client.Key(channel)).Message(string(payload)).Build()
	return inner.Do(ctx, cmd).Error()
}

// Subscribe blocks delivering messages to fn until ctx ends or the
// subscription fails.
func (p *PubSub) Subscribe(ctx context.Context, channel string, fn func(payload []byte)) error {
	inner := p.client.Inner()
	return inner.Receive(ctx, inner.B().Subscribe().Channel(p.client.Key(channel)).Build(), func(msg valkeylib.PubSubMessage) {
		fn([]byte(msg.Message))
	})
}
