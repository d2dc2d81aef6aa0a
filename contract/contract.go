//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of one live connection. Consume must not
// block: implementations buffer and drop under backpressure.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IChannelDirectory resolves channel metadata for the live subsystem.
// The live core only ever reads; channel mutation stays behind the REST layer.
type IChannelDirectory interface {
	GetChannel(ctx context.Context, id domain.ChannelID) (domain.Channel, error)
}

// IMessageStore is the persistent message collaborator of the broadcast
// pipeline: single create/update/delete calls, no query surface.
type IMessageStore interface {
	Create(ctx context.Context, m domain.Message) error
	Get(ctx context.Context, id uuid.UUID) (domain.Message, error)
	Update(ctx context.Context, m domain.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// IPresenceStore persists the durable online/lastSeen fields of a user.
// Writes are best-effort: a failure is logged, never propagated to the
// in-memory presence state.
type IPresenceStore interface {
	SetPresence(ctx context.Context, user domain.UserID, online bool, lastSeen time.Time) error
}

// IMessageIndex feeds the full-text search index. Indexing failures are
// logged, not surfaced to the message originator.
type IMessageIndex interface {
	Index(m domain.Message) error
	Remove(id uuid.UUID) error
}

// IOTPSender dispatches and checks one-time codes during phone verification.
type IOTPSender interface {
	Send(ctx context.Context, phone string) error
	Check(ctx context.Context, phone, code string) (bool, error)
}
