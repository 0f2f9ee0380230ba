package event

import (
	"sync"
)

const queueSize = 256

type listener struct {
	id        int
	eventType EventType
	channel   chan Event
}

// EventManager delivers events to listeners from a single dispatch
// goroutine, in the order they were sent. A listener that stops draining
// its channel stalls delivery to everyone.
type EventManager struct {
	listeners []*listener
	nextID    int
	queue     chan Event
	done      chan struct{}
	closed    bool
	mux       sync.RWMutex
	lmux      sync.Mutex
}

// NewEventManager returns a new EventManager with its dispatcher running
func NewEventManager() *EventManager {
	m := &EventManager{
		listeners: []*listener{},
		nextID:    1,
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}

	go m.dispatch()

	return m
}

// RegisterListener registers a channel for one event type, or AllEvents
func (m *EventManager) RegisterListener(eventType EventType, channel chan Event) int {
	m.lmux.Lock()
	defer m.lmux.Unlock()

	l := &listener{
		id:        m.nextID,
		eventType: eventType,
		channel:   channel,
	}

	m.listeners = append(m.listeners, l)
	m.nextID++

	return l.id
}

// RemoveListener unregisters a listener and returns its id
func (m *EventManager) RemoveListener(id int) int {
	m.lmux.Lock()
	defer m.lmux.Unlock()

	listeners := []*listener{}

	for _, l := range m.listeners {
		if l.id != id {
			listeners = append(listeners, l)
		}
	}

	m.listeners = listeners

	return id
}

// Send queues an event, blocking while the queue is full. Events sent after
// Close are dropped.
func (m *EventManager) Send(evt Event) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	if m.closed {
		return
	}

	m.queue <- evt
}

// ReportError sends an error event
func (m *EventManager) ReportError(err error) {
	m.Send(Event{Type: ErrorEventType, Payload: err})
}

// ReportFatalError sends a fatal error event
func (m *EventManager) ReportFatalError(err error) {
	m.Send(Event{Type: FatalErrorEventType, Payload: err})
}

// Close stops accepting events and waits for queued events to be delivered
func (m *EventManager) Close() {
	m.mux.Lock()

	if m.closed {
		m.mux.Unlock()
		return
	}

	m.closed = true
	close(m.queue)
	m.mux.Unlock()

	<-m.done
}

func (m *EventManager) dispatch() {
	defer close(m.done)

	for evt := range m.queue {
		for _, l := range m.subscribers(evt.Type) {
			l.channel <- evt
		}
	}
}

func (m *EventManager) subscribers(eventType EventType) []*listener {
	m.lmux.Lock()
	defer m.lmux.Unlock()

	subs := []*listener{}

	for _, l := range m.listeners {
		if l.eventType == eventType || l.eventType == AllEvents {
			subs = append(subs, l)
		}
	}

	return subs
}
