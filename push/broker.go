package push

import "sync"

// Subscription is a single-shot foreground subscription. C yields at most
// one payload and is then closed; the holder resubscribes for the next
// delivery. Cancel releases an unused subscription.
type Subscription struct {
	C      <-chan Payload
	cancel func()
}

func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Broker fans deliveries to foreground subscribers. Subscriptions are
// one-shot: Publish consumes the oldest one.
type Broker struct {
	mu   sync.Mutex
	subs []chan Payload
}

func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe registers a one-shot subscription.
func (b *Broker) Subscribe() *Subscription {
	ch := make(chan Payload, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return &Subscription{
		C:      ch,
		cancel: func() { b.remove(ch) },
	}
}

func (b *Broker) remove(ch chan Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// HasSubscribers reports whether any page is listening in the foreground.
func (b *Broker) HasSubscribers() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) > 0
}

// Publish hands the payload to the oldest subscriber and retires that
// subscription. It reports false when no subscriber exists, leaving the
// payload for the background path.
func (b *Broker) Publish(p Payload) bool {
	b.mu.Lock()
	if len(b.subs) == 0 {
		b.mu.Unlock()
		return false
	}
	ch := b.subs[0]
	b.subs = b.subs[1:]
	b.mu.Unlock()

	ch <- p
	close(ch)
	return true
}
