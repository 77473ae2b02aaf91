package events

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/util"
	"github.com/haileyok/seneca/registry"
)

// Message is the json form of a registry event used on the stream and the broker.
type Message struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	ID        uint32 `json:"id"`
	Record    string `json:"record,omitempty"`
	Signature string `json:"signature,omitempty"`
	Time      string `json:"time"`
}

func NewMessage(evt *registry.Event) *Message {
	msg := &Message{
		Seq:  evt.Seq,
		Kind: string(evt.Kind),
		ID:   evt.ID,
		Time: time.Now().UTC().Format(util.ISO8601),
	}

	if len(evt.Record) > 0 {
		msg.Record = hex.EncodeToString(evt.Record)
	}

	if evt.Signature != nil {
		msg.Signature = evt.Signature.Hex()
	}

	return msg
}

// RoutingKey maps SchemaCreated to schema.created and so on.
func RoutingKey(prefix string, kind registry.EventKind) string {
	k := string(kind)
	for _, noun := range []string{"Schema", "Credential"} {
		if rest, ok := strings.CutPrefix(k, noun); ok {
			k = strings.ToLower(noun) + "." + strings.ToLower(rest)
			break
		}
	}

	if prefix == "" {
		return k
	}

	return prefix + "." + k
}

type Publisher interface {
	Publish(ctx context.Context, evt *registry.Event) error
}

type subscriber struct {
	ident  string
	ch     chan *registry.Event
	filter func(*registry.Event) bool
	once   sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// Manager fans registry events out to stream subscribers and publishers.
type Manager struct {
	lk         sync.Mutex
	subs       map[*subscriber]struct{}
	publishers []Publisher
	bufSize    int
	logger     *slog.Logger
}

var _ registry.EventSink = (*Manager)(nil)

type ManagerArgs struct {
	Logger     *slog.Logger
	BufferSize int
	Publishers []Publisher
}

func NewManager(args *ManagerArgs) *Manager {
	if args == nil {
		args = &ManagerArgs{}
	}

	if args.Logger == nil {
		args.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}

	if args.BufferSize <= 0 {
		args.BufferSize = 1024
	}

	return &Manager{
		subs:       map[*subscriber]struct{}{},
		publishers: args.Publishers,
		bufSize:    args.BufferSize,
		logger:     args.Logger.With("component", "events"),
	}
}

// Emit delivers evt to every matching subscriber without blocking. A
// subscriber whose buffer is full is disconnected.
func (m *Manager) Emit(ctx context.Context, evt *registry.Event) {
	m.lk.Lock()
	for s := range m.subs {
		if s.filter != nil && !s.filter(evt) {
			continue
		}

		select {
		case s.ch <- evt:
		default:
			m.logger.Warn("dropping slow subscriber", "ident", s.ident, "seq", evt.Seq)
			delete(m.subs, s)
			s.close()
		}
	}
	m.lk.Unlock()

	for _, p := range m.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			m.logger.Error("error publishing event", "kind", evt.Kind, "id", evt.ID, "error", err)
		}
	}
}

func (m *Manager) Subscribe(ctx context.Context, ident string, filter func(*registry.Event) bool) (<-chan *registry.Event, func(), error) {
	if ident == "" {
		return nil, nil, fmt.Errorf("subscriber ident must be set")
	}

	s := &subscriber{
		ident:  ident,
		ch:     make(chan *registry.Event, m.bufSize),
		filter: filter,
	}

	m.lk.Lock()
	m.subs[s] = struct{}{}
	m.lk.Unlock()

	cancel := func() {
		m.lk.Lock()
		delete(m.subs, s)
		m.lk.Unlock()
		s.close()
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return s.ch, cancel, nil
}

func (m *Manager) Subscribers() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return len(m.subs)
}
