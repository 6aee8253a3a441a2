package mqtt

import (
	"fmt"
	"sync"
)

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// subscriptionSet remembers subscriptions so they can be replayed after a
// reconnect. The session is clean, so the broker forgets them on every drop.
type subscriptionSet struct {
	mu    sync.RWMutex
	items map[string]subscription
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{items: make(map[string]subscription)}
}

func (s *subscriptionSet) put(sub subscription) {
	s.mu.Lock()
	s.items[sub.topic] = sub
	s.mu.Unlock()
}

func (s *subscriptionSet) remove(topic string) {
	s.mu.Lock()
	delete(s.items, topic)
	s.mu.Unlock()
}

func (s *subscriptionSet) has(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[topic]
	return ok
}

func (s *subscriptionSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *subscriptionSet) each(fn func(subscription)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.items {
		fn(sub)
	}
}

// Subscribe registers handler for topic, which may use the + and #
// wildcards (the command ingress uses "{prefix}/control/+").
//
// The subscription is tracked before the broker confirms it and forgotten
// again if the broker refuses.
//
// Parameters:
//   - topic: Topic filter to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback invoked for each message
//
// Returns:
//   - error: nil on success, or wrapped ErrSubscribeFailed describing the failure
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validate(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subs.put(subscription{topic: topic, qos: qos, handler: handler})
	if err := await(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed); err != nil {
		c.subs.remove(topic)
		return err
	}
	return nil
}

// Unsubscribe drops the subscription for the exact topic filter. Messages
// already in flight may still be delivered.
//
// Parameters:
//   - topic: The exact filter passed to Subscribe
//
// Returns:
//   - error: nil on success, or wrapped ErrUnsubscribeFailed describing the failure
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subs.remove(topic)
	return await(c.client.Unsubscribe(topic), defaultPublishTimeout, ErrUnsubscribeFailed)
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	return c.subs.len()
}

// HasSubscription reports whether topic (matched literally) is tracked.
func (c *Client) HasSubscription(topic string) bool {
	return c.subs.has(topic)
}
