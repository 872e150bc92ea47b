package hub

import (
	"fmt"
	"testing"
	"time"

	"cyberguard/pkg/models"
)

func threat(id string) *models.Threat {
	return &models.Threat{ID: id, Severity: models.SeverityLow}
}

func TestPublishWithZeroSubscribersDoesNotBlock(t *testing.T) {
	h := New(4)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(threat(fmt.Sprintf("t%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked with zero subscribers")
	}
}

func TestSubscriberReceivesInPublishOrder(t *testing.T) {
	h := New(8)
	_, ch := h.Subscribe()

	h.Publish(threat("a"))
	h.Publish(threat("b"))
	h.Publish(threat("c"))

	for _, want := range []string{"a", "b", "c"} {
		select {
		case got := <-ch:
			if got.ID != want {
				t.Fatalf("got %s, want %s", got.ID, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestSlowSubscriberDropsWithoutBlockingOthers(t *testing.T) {
	h := New(1)
	_, slow := h.Subscribe()
	_, fast := h.Subscribe()

	// The slow subscriber's queue holds one message; further publishes must
	// drop for it while still reaching the fast subscriber.
	h.Publish(threat("a"))
	h.Publish(threat("b"))
	h.Publish(threat("c"))

	received := 0
	for received < 3 {
		select {
		case <-fast:
			received++
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber received %d of 3", received)
		}
	}

	if got := <-slow; got.ID != "a" {
		t.Fatalf("slow subscriber should keep the oldest message, got %s", got.ID)
	}
	select {
	case extra, ok := <-slow:
		if ok {
			t.Fatalf("unexpected extra message %s on slow subscriber", extra.ID)
		}
	default:
	}
}

func TestUnsubscribeClosesStream(t *testing.T) {
	h := New(4)
	id, ch := h.Subscribe()
	h.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed stream after unsubscribe")
	}
	if n := h.Subscribers(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish(threat("x"))
}

func TestCloseClosesAllStreamsAndPublishBecomesNoop(t *testing.T) {
	h := New(4)
	_, a := h.Subscribe()
	_, b := h.Subscribe()
	h.Close()

	if _, ok := <-a; ok {
		t.Fatalf("stream a should be closed")
	}
	if _, ok := <-b; ok {
		t.Fatalf("stream b should be closed")
	}

	h.Publish(threat("x"))
	_, ch := h.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("subscribe after close should hand out a closed stream")
	}
}
