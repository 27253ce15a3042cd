package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervaldb/intervaldb/internal/model"
)

func TestHubSendWithoutSubscribersIsNoop(t *testing.T) {
	h := New()
	// must not panic or allocate channel state for a resource nobody watches
	h.Send(model.NewID(), model.RuleRemoved{ID: model.NewID()})
	assert.False(t, h.HasSubscribers(model.NewID()))
}

func TestHubSubscribeReceive(t *testing.T) {
	h := New()
	resource := model.NewID()

	sub := h.Subscribe(resource)
	defer sub.Close()
	assert.True(t, h.HasSubscribers(resource))

	ev := model.HoldPlaced{ID: model.NewID(), ResourceID: resource, Span: model.Span{Start: 0, End: 10}, ExpiresAt: 99}
	h.Send(resource, ev)

	select {
	case got := <-sub.Events:
		assert.Equal(t, model.Event(ev), got)
	default:
		t.Fatal("expected a delivered event")
	}
}

func TestHubMultipleSubscribersAllReceive(t *testing.T) {
	h := New()
	resource := model.NewID()

	a := h.Subscribe(resource)
	defer a.Close()
	b := h.Subscribe(resource)
	defer b.Close()

	h.Send(resource, model.RuleRemoved{ID: model.NewID()})

	for _, sub := range []*Subscription{a, b} {
		select {
		case <-sub.Events:
		default:
			t.Fatal("every subscriber receives every event")
		}
	}
}

func TestHubIsolatesResources(t *testing.T) {
	h := New()
	a := model.NewID()
	b := model.NewID()

	subA := h.Subscribe(a)
	defer subA.Close()

	h.Send(b, model.RuleRemoved{ID: model.NewID()})

	select {
	case <-subA.Events:
		t.Fatal("a subscriber must only see its own resource's events")
	default:
	}
}

func TestHubDropsOldestWhenSubscriberIsSlow(t *testing.T) {
	h := New()
	resource := model.NewID()

	sub := h.Subscribe(resource)
	defer sub.Close()

	// overflow the buffer; the publisher never blocks, and the retained
	// window is the most recent events, not the oldest
	total := channelCapacity + 10
	for i := 0; i < total; i++ {
		h.Send(resource, model.HoldPlaced{ID: model.NewID(), ResourceID: resource, Span: model.Span{Start: model.Time(i), End: model.Time(i + 1)}, ExpiresAt: 0})
	}

	received := 0
	var first model.Event
drain:
	for {
		select {
		case ev := <-sub.Events:
			if received == 0 {
				first = ev
			}
			received++
		default:
			break drain
		}
	}
	assert.Equal(t, channelCapacity, received)
	hp, ok := first.(model.HoldPlaced)
	require.True(t, ok)
	assert.Equal(t, model.Time(10), hp.Span.Start, "the oldest 10 events were dropped")
}

func TestHubCloseUnsubscribes(t *testing.T) {
	h := New()
	resource := model.NewID()

	sub := h.Subscribe(resource)
	sub.Close()
	assert.False(t, h.HasSubscribers(resource))

	h.Send(resource, model.RuleRemoved{ID: model.NewID()})
	select {
	case <-sub.Events:
		t.Fatal("a closed subscription receives nothing")
	default:
	}
}
