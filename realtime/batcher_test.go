package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) snapshot() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func TestBatcherGroupsByKind(t *testing.T) {
	sink := &capturePublisher{}
	b := NewBatcher(sink, time.Hour, 100) // timer tidak akan jalan, flush manual
	defer b.Stop()

	b.Publish(Event{RestaurantID: 1, Payload: OrderStatusUpdated{OrderID: 1}})
	b.Publish(Event{RestaurantID: 1, Payload: SessionTotalsUpdated{SessionID: 1, TotalAmount: 10}})
	b.Publish(Event{RestaurantID: 1, Payload: OrderStatusUpdated{OrderID: 2}})
	b.Publish(Event{RestaurantID: 1, Payload: SessionTotalsUpdated{SessionID: 1, TotalAmount: 25}})

	b.Flush()

	got := sink.snapshot()
	require.Len(t, got, 4)

	// Kind mengelompok sesuai kemunculan pertama; urutan intra-kind terjaga.
	assert.Equal(t, EventOrderStatusUpdated, got[0].Kind())
	assert.Equal(t, EventOrderStatusUpdated, got[1].Kind())
	assert.Equal(t, EventSessionTotalsUpdated, got[2].Kind())
	assert.Equal(t, EventSessionTotalsUpdated, got[3].Kind())
	assert.Equal(t, uint(1), got[0].Payload.(OrderStatusUpdated).OrderID)
	assert.Equal(t, uint(2), got[1].Payload.(OrderStatusUpdated).OrderID)
	assert.InDelta(t, 10, got[2].Payload.(SessionTotalsUpdated).TotalAmount, 0.001)
	assert.InDelta(t, 25, got[3].Payload.(SessionTotalsUpdated).TotalAmount, 0.001)
}

func TestBatcherFlushesOnThreshold(t *testing.T) {
	sink := &capturePublisher{}
	b := NewBatcher(sink, time.Hour, 3)
	defer b.Stop()

	for i := 0; i < 3; i++ {
		b.Publish(Event{RestaurantID: 1, Payload: Pong{}})
	}

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	sink := &capturePublisher{}
	b := NewBatcher(sink, 20*time.Millisecond, 100)
	defer b.Stop()

	b.Publish(Event{RestaurantID: 1, Payload: Pong{}})

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
}
