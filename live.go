package osiris

import "github.com/agentstation/osiris/internal/broadcast"

// Compile-time interface check to ensure proper implementation.
var _ Live = (*client)(nil)

// Live manages live subscribers. Each completed cycle pushes its newest
// events to every subscriber; a subscriber whose push fails is dropped.
type Live interface {
	Subscribe(sub broadcast.Subscriber)
	Unsubscribe(sub broadcast.Subscriber)
	SubscriberCount() int
}

// Subscribe implements Live.
func (c *client) Subscribe(sub broadcast.Subscriber) {
	c.broadcaster.Register(sub)
	c.metrics.SetSubscribers(c.broadcaster.Count())
}

// Unsubscribe implements Live.
func (c *client) Unsubscribe(sub broadcast.Subscriber) {
	c.broadcaster.Unregister(sub)
	c.metrics.SetSubscribers(c.broadcaster.Count())
}

// SubscriberCount implements Live.
func (c *client) SubscriberCount() int {
	return c.broadcaster.Count()
}
