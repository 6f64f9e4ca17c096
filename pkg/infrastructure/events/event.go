package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// Event is one fact about the cost catalog: a price moved, a recipe was edited, or a
// propagation run committed new costs
type Event interface {
	ID() string
	Type() string
	StreamID() string
	// Tenant is empty for single-tenant catalogs
	Tenant() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to dispatched events. Handlers run synchronously inside AppendEvent.
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore is an append-only log of catalog events grouped into streams
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// ItemStream, RecipeStream and RecalculationStream key streams by the entity an event is about
func ItemStream(id entities.ItemID) string {
	return "inventory_item-" + string(id)
}

func RecipeStream(id entities.RecipeID) string {
	return "recipe-" + string(id)
}

func RecalculationStream(runID string) string {
	return "recalculation-" + runID
}

type BaseEvent struct {
	EventID      string
	EventType    string
	Stream       string
	TenantID     string
	EventData    interface{}
	EventTime    time.Time
	EventVersion int
}

func (e BaseEvent) ID() string {
	return e.EventID
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Tenant() string {
	return e.TenantID
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent stamps a new event with a fresh id and the current time
func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		Stream:       streamID,
		EventData:    data,
		EventTime:    time.Now(),
		EventVersion: 1,
	}
}

// WithTenant returns a copy of event scoped to tenant. Events of other
// implementations are returned unchanged.
func WithTenant(event Event, tenant string) Event {
	base, ok := event.(BaseEvent)
	if !ok {
		return event
	}
	base.TenantID = tenant
	return base
}
