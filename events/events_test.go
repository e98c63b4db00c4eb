package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeRaceLocked, func(ctx context.Context, e Event) {
		received <- e
	})

	bus.Emit(context.Background(), RaceLockedEvent{ScheduleID: 1, GuildID: 777, RaceNo: 2})

	select {
	case e := <-received:
		ev, ok := e.(RaceLockedEvent)
		require.True(t, ok)
		assert.Equal(t, 2, ev.RaceNo)
		assert.Equal(t, int64(777), ev.GuildID)
	case <-time.After(time.Second):
		t.Fatal("subscribed handler was not invoked")
	}
}

func TestBus_EmitSkipsOtherTypes(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeRaceFinished, func(ctx context.Context, e Event) {
		received <- e
	})

	bus.Emit(context.Background(), RaceLockedEvent{ScheduleID: 1})

	select {
	case <-received:
		t.Fatal("handler for another event type was invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushDeliversPending(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 2)
	bus.Subscribe(EventTypeLotteryDrawn, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(LotteryDrawnEvent{ScheduleID: 1, RaceNo: 1})
	txBus.Publish(LotteryDrawnEvent{ScheduleID: 2, RaceNo: 2})
	txBus.Flush(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("pending event was not delivered after flush")
		}
	}
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeLotteryDrawn, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(LotteryDrawnEvent{ScheduleID: 1})
	txBus.Discard()
	txBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("discarded event was delivered")
	case <-time.After(50 * time.Millisecond):
	}
}
