package registry

import (
	"context"

	"github.com/haileyok/seneca/signature"
)

type EventKind string

const (
	SchemaCreated     EventKind = "SchemaCreated"
	SchemaUpdated     EventKind = "SchemaUpdated"
	SchemaDeleted     EventKind = "SchemaDeleted"
	CredentialCreated EventKind = "CredentialCreated"
	CredentialUpdated EventKind = "CredentialUpdated"
	CredentialDeleted EventKind = "CredentialDeleted"
)

func (k EventKind) IsSchema() bool {
	return k == SchemaCreated || k == SchemaUpdated || k == SchemaDeleted
}

// Event describes one accepted mutation. Record holds the canonical record
// bytes for creates and updates and is empty for deletes.
type Event struct {
	Seq       uint64               `json:"seq"`
	Kind      EventKind            `json:"kind"`
	ID        uint32               `json:"id"`
	Record    []byte               `json:"record,omitempty"`
	Signature *signature.Signature `json:"-"`
}

type EventSink interface {
	Emit(ctx context.Context, evt *Event)
}

type nopSink struct{}

func (nopSink) Emit(context.Context, *Event) {}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(ctx context.Context, evt *Event)

func (f SinkFunc) Emit(ctx context.Context, evt *Event) {
	f(ctx, evt)
}
