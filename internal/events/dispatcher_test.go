package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.ID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.ID)
		return nil
	})

	if err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(seen) != 2 || seen[0] != "first:e1" || seen[1] != "second:e1" {
		t.Fatalf("unexpected handler calls: %v", seen)
	}
}

func TestPublishContinuesPastHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()

	var called bool
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		called = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventUserRegistered}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !called {
		t.Fatal("second handler not invoked after first failed")
	}
}

func TestPublishIgnoresUnrelatedEvents(t *testing.T) {
	d := NewInMemoryDispatcher()

	var called bool
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		called = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called {
		t.Fatal("handler invoked for unrelated event type")
	}
}
