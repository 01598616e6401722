package event

import (
	"sync"

	"go.uber.org/zap"
)

type Listener struct {
	eventType Type
	channel   chan interface{}
}

// Emitter fans emitted events out to registered listeners. Each listener gets
// its own channel and goroutine so a slow sink never blocks settlement.
// Emitters are constructed and injected; there is no process-wide instance.
type Emitter struct {
	mu        sync.RWMutex
	listeners []*Listener
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make([]*Listener, 0)}
}

func (e *Emitter) AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := &Listener{
		eventType: eventType,
		channel:   make(chan interface{}),
	}

	e.mu.Lock()
	e.listeners = append(e.listeners, listener)
	e.mu.Unlock()

	go func() {
		for msg := range listener.channel {
			callback(msg)
		}
	}()
}

func (e *Emitter) Emit(eventType Type, msg interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}

	for _, listener := range e.listeners {
		if listener.eventType == eventType {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			go func(handler chan interface{}) {
				handler <- msg
			}(listener.channel)
		}
	}
}
