package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(TopicSnapshot)

	evt := Event{Type: "sim.snapshot", Data: map[string]any{"totalEmergencies": 3}}
	b.Publish(TopicSnapshot, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
		if got.Data["totalEmergencies"].(int) != 3 { t.Fatalf("bad payload: %+v", got.Data) }
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(TopicSnapshot, ch)
	select {
	case _, ok := <-ch:
		if ok { t.Fatal("channel should be closed after unsubscribe") }
	case <-time.After(50 * time.Millisecond):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestBrokerTopicsAreIsolated(t *testing.T) {
	b := NewBroker()
	snaps := b.Subscribe(TopicSnapshot)
	alerts := b.Subscribe(TopicAlert)
	defer b.Unsubscribe(TopicSnapshot, snaps)
	defer b.Unsubscribe(TopicAlert, alerts)

	b.Publish(TopicAlert, Event{Type: "alert.capacity_critical"})

	select {
	case <-snaps:
		t.Fatal("snapshot subscriber received an alert event")
	case got := <-alerts:
		if got.Type != "alert.capacity_critical" { t.Fatalf("got %s", got.Type) }
	case <-time.After(200 * time.Millisecond):
		t.Fatal("alert subscriber never notified")
	}
}

func TestBrokerDropsWhenSubscriberLags(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(TopicSnapshot)
	defer b.Unsubscribe(TopicSnapshot, ch)

	// channel buffer is 8; publishing past it must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(TopicSnapshot, Event{Type: "sim.snapshot"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
