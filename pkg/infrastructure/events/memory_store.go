package events

import (
	"errors"
	"fmt"
	"sync"
)

// InMemoryEventStore keeps event streams in memory. Subscribers are notified
// synchronously in subscription order once the event is appended.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	allEvents   []Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
	}
}

// AppendEvent stores the event and then runs every matching handler. Handler errors
// are joined and returned; the event stays appended.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()

	if s.streams[streamID] == nil {
		s.streams[streamID] = make([]Event, 0)
	}

	eventID := event.ID()
	if eventID == "" {
		eventID = NewEvent(event.Type(), streamID, nil).ID()
	}

	eventWithVersion := BaseEvent{
		EventID:      eventID,
		EventType:    event.Type(),
		Stream:       streamID,
		TenantID:     event.Tenant(),
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	s.position++

	handlers := make([]EventHandler, len(s.subscribers[event.Type()]))
	copy(handlers, s.subscribers[event.Type()])
	s.mutex.Unlock()

	return notifySubscribers(handlers, eventWithVersion)
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	result := make([]Event, len(events)-fromVersion+1)
	copy(result, events[fromVersion-1:])
	return result, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	result := make([]Event, len(s.allEvents)-fromPosition)
	copy(result, s.allEvents[fromPosition:])
	return result, nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		if s.subscribers[eventType] == nil {
			s.subscribers[eventType] = make([]EventHandler, 0)
		}
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0)
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

func notifySubscribers(handlers []EventHandler, event Event) error {
	var errs []error
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			errs = append(errs, fmt.Errorf("handler failed for event %s (%s): %w", event.ID(), event.Type(), err))
		}
	}
	return errors.Join(errs...)
}
