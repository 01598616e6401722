package event_test

import (
	"testing"
	"time"

	"github.com/dappmarket/marketplace-core/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestEmitReachesListener(t *testing.T) {
	emitter := event.NewEmitter()
	received := make(chan interface{}, 1)

	emitter.AddEventListener(event.ItemOfferedEvent, func(msg interface{}) {
		received <- msg
	})

	emitter.Emit(event.ItemOfferedEvent, "payload")

	select {
	case msg := <-received:
		assert.Equal(t, "payload", msg)
	case <-time.After(time.Second):
		t.Fatal("listener did not receive the event")
	}
}

func TestEmitSkipsOtherTypes(t *testing.T) {
	emitter := event.NewEmitter()
	received := make(chan interface{}, 1)

	emitter.AddEventListener(event.ItemBoughtEvent, func(msg interface{}) {
		received <- msg
	})

	emitter.Emit(event.ItemOfferedEvent, "payload")

	select {
	case <-received:
		t.Fatal("listener received an event of another type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitWithoutListeners(t *testing.T) {
	emitter := event.NewEmitter()

	assert.NotPanics(t, func() {
		emitter.Emit(event.ItemBoughtEvent, "payload")
	})
}
