package realtime

import (
	"context"
	"testing"
	"time"
)

func TestFormatMessage(t *testing.T) {
	got := FormatMessage("login", "alice")
	want := "event: login\ndata: alice\n\n"
	if got != want {
		t.Errorf("FormatMessage = %q, want %q", got, want)
	}
}

func TestPublishFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	c := bus.Subscribe()

	bus.Publish("register", "bob")

	want := FormatMessage("register", "bob")
	for i, sub := range []*Subscriber{a, b, c} {
		msg, ok := sub.TryNext()
		if !ok {
			t.Fatalf("subscriber %d received nothing", i)
		}
		if msg != want {
			t.Errorf("subscriber %d got %q, want %q", i, msg, want)
		}
		if _, ok := sub.TryNext(); ok {
			t.Errorf("subscriber %d received an extra message", i)
		}
	}
}

func TestPublishOrdering(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Publish("login", "first")
	bus.Publish("login", "second")

	msg, ok := sub.TryNext()
	if !ok || msg != FormatMessage("login", "first") {
		t.Fatalf("expected first message, got %q (ok=%v)", msg, ok)
	}
	msg, ok = sub.TryNext()
	if !ok || msg != FormatMessage("login", "second") {
		t.Fatalf("expected second message, got %q (ok=%v)", msg, ok)
	}
}

func TestUnsubscribedReceivesNothing(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	bus.Publish("logout", "carol")

	if _, ok := sub.TryNext(); ok {
		t.Error("unsubscribed queue received a message")
	}

	// Unsubscribe is idempotent.
	bus.Unsubscribe(sub)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	bus := NewBus()
	bus.Publish("register", "dave")

	sub := bus.Subscribe()
	if _, ok := sub.TryNext(); ok {
		t.Error("late subscriber should not see messages published before it joined")
	}
}

func TestNextWakesOnPublish(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		msg, ok := sub.Next(ctx)
		if ok {
			done <- msg
		}
		close(done)
	}()

	// Give the goroutine a moment to park on the wake channel.
	time.Sleep(10 * time.Millisecond)
	bus.Publish("reminder", "Standup")

	select {
	case msg, ok := <-done:
		if !ok {
			t.Fatal("Next returned false before the context expired")
		}
		if msg != FormatMessage("reminder", "Standup") {
			t.Errorf("unexpected message %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not wake on publish")
	}
}

func TestNextReturnsFalseOnCancel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := sub.Next(ctx); ok {
		t.Error("Next should return false on a cancelled context")
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := NewBus()
	if bus.SubscriberCount() != 0 {
		t.Fatalf("fresh bus should have 0 subscribers")
	}
	a := bus.Subscribe()
	b := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", bus.SubscriberCount())
	}
	bus.Unsubscribe(a)
	bus.Unsubscribe(b)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", bus.SubscriberCount())
	}
}
