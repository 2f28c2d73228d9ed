package events

import "testing"

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bus.Publish(FeedRefreshed{Language: "en"})

	for name, ch := range map[string]<-chan FeedRefreshed{"first": first, "second": second} {
		select {
		case e := <-ch:
			if e.Language != "en" {
				t.Fatalf("%s subscriber: expected language en, got %q", name, e.Language)
			}
		default:
			t.Fatalf("%s subscriber did not receive the event", name)
		}
	}
}

func TestBusPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	// Two publishes without a read in between: the second must not block.
	bus.Publish(FeedRefreshed{Language: "en"})
	bus.Publish(FeedRefreshed{Language: "de"})

	select {
	case <-ch:
	default:
		t.Fatal("expected at least one buffered event")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel() // idempotent

	if _, open := <-ch; open {
		t.Fatal("expected the channel to be closed after unsubscribe")
	}
	bus.Publish(FeedRefreshed{Language: "en"}) // must not panic
}
