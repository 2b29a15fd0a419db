package events

import (
	"context"
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/event"
)

type recorder struct{ got []event.Event }

func (r *recorder) Publish(_ context.Context, e event.Event) { r.got = append(r.got, e) }

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	h := NewHub()
	ch, unsubscribe := h.Subscribe(4)

	h.Publish(context.Background(), event.New(event.OrderDelivered, "p1", nil))

	e := <-ch
	if e.Type != event.OrderDelivered || e.Subject != "p1" {
		t.Errorf("unexpected event %+v", e)
	}

	unsubscribe()
	unsubscribe()
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", h.Subscribers())
	}
	h.Publish(context.Background(), event.New(event.OrderRemoved, "p1", nil))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, unsubscribe := h.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		h.Publish(context.Background(), event.New(event.StockChanged, "gin", nil))
	}
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b}.Publish(context.Background(), event.New(event.TableMerged, "m1", nil))
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("expected both publishers to receive the event: %d, %d", len(a.got), len(b.got))
	}
}
