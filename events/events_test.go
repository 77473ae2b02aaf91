package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/signature"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publisherFunc func(ctx context.Context, evt *registry.Event) error

func (f publisherFunc) Publish(ctx context.Context, evt *registry.Event) error {
	return f(ctx, evt)
}

func recv(t *testing.T, ch <-chan *registry.Event) *registry.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestManagerFanOut(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)

	all, cancelAll, err := m.Subscribe(ctx, "all", nil)
	require.NoError(t, err)
	defer cancelAll()

	schemasOnly, cancelSchemas, err := m.Subscribe(ctx, "schemas", func(evt *registry.Event) bool {
		return evt.Kind.IsSchema()
	})
	require.NoError(t, err)
	defer cancelSchemas()

	assert.Equal(t, 2, m.Subscribers())

	m.Emit(ctx, &registry.Event{Seq: 1, Kind: registry.CredentialCreated, ID: 4})
	m.Emit(ctx, &registry.Event{Seq: 1, Kind: registry.SchemaCreated, ID: 7})

	assert.Equal(t, registry.CredentialCreated, recv(t, all).Kind)
	assert.Equal(t, registry.SchemaCreated, recv(t, all).Kind)

	evt := recv(t, schemasOnly)
	assert.Equal(t, registry.SchemaCreated, evt.Kind)
	assert.Equal(t, uint32(7), evt.ID)
}

func TestManagerDropsSlowSubscriber(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&ManagerArgs{BufferSize: 1})

	ch, cancel, err := m.Subscribe(ctx, "slow", nil)
	require.NoError(t, err)
	defer cancel()

	m.Emit(ctx, &registry.Event{Seq: 1, Kind: registry.SchemaCreated})
	m.Emit(ctx, &registry.Event{Seq: 2, Kind: registry.SchemaUpdated})

	assert.Equal(t, 0, m.Subscribers())

	evt := recv(t, ch)
	assert.Equal(t, uint64(1), evt.Seq)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestManagerUnsubscribeOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(nil)

	ch, _, err := m.Subscribe(ctx, "short", nil)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	assert.Equal(t, 0, m.Subscribers())

	_, _, err = m.Subscribe(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestManagerPublishers(t *testing.T) {
	var got []*registry.Event
	m := NewManager(&ManagerArgs{
		Publishers: []Publisher{
			publisherFunc(func(ctx context.Context, evt *registry.Event) error {
				return errors.New("broker down")
			}),
			publisherFunc(func(ctx context.Context, evt *registry.Event) error {
				got = append(got, evt)
				return nil
			}),
		},
	})

	m.Emit(context.Background(), &registry.Event{Seq: 3, Kind: registry.CredentialDeleted, ID: 2})

	require.Len(t, got, 1)
	assert.Equal(t, uint64(3), got[0].Seq)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "registry.schema.created", RoutingKey("registry", registry.SchemaCreated))
	assert.Equal(t, "credential.deleted", RoutingKey("", registry.CredentialDeleted))
}

func TestNewMessage(t *testing.T) {
	sig := signature.Signature{0xab}
	msg := NewMessage(&registry.Event{
		Seq:       5,
		Kind:      registry.SchemaUpdated,
		ID:        9,
		Record:    []byte{0x01, 0xff},
		Signature: &sig,
	})

	assert.Equal(t, "01ff", msg.Record)
	assert.Equal(t, sig.Hex(), msg.Signature)
	assert.NotEmpty(t, msg.Time)

	msg = NewMessage(&registry.Event{Seq: 6, Kind: registry.SchemaDeleted, ID: 9})
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "record")
	assert.NotContains(t, string(b), "signature")
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msg = msg
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAmqpPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AmqpPublisher{channel: ch, exchange: "seneca", prefix: "registry"}

	require.NoError(t, p.Publish(context.Background(), &registry.Event{Seq: 8, Kind: registry.CredentialCreated, ID: 1}))

	assert.Equal(t, "seneca", ch.exchange)
	assert.Equal(t, "registry.credential.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "8", ch.msg.MessageId)

	var msg Message
	require.NoError(t, json.Unmarshal(ch.msg.Body, &msg))
	assert.Equal(t, "CredentialCreated", msg.Kind)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNewAmqpPublisherBadUrl(t *testing.T) {
	_, err := NewAmqpPublisher(&AmqpArgs{Url: "not-a-url"})
	assert.Error(t, err)
}
