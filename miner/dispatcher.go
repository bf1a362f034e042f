package main

import (
	"sync"

	"ferrominer/block"
)

// notificationKind discriminates the messages fanned out to workers.
type notificationKind int

const (
	notifyNewJob notificationKind = iota
	notifyExit
)

// notification is a broadcast message to all mining workers: either a new
// job or the exit signal. The template pointer is shared read-only; a
// worker copies the template before mutating any field.
type notification struct {
	kind       notificationKind
	template   *block.Template
	difficulty uint64
}

// notifyBuffer is the capacity of each subscriber channel. Jobs arrive at
// block-time cadence while workers drain every attempt, so a small fixed
// buffer never fills in practice.
const notifyBuffer = 16

// dispatcher is a single-producer broadcast channel: the connection
// supervisor publishes, every worker holds its own receiving handle.
// Subscriptions must all be created before the first publish; a handle
// created later does not see earlier notifications.
type dispatcher struct {
	mu   sync.Mutex
	subs []chan notification
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

// Subscribe returns a fresh receiving handle. Each handle observes every
// subsequent notification exactly once, in publish order.
func (d *dispatcher) Subscribe() <-chan notification {
	ch := make(chan notification, notifyBuffer)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	d.mu.Unlock()
	return ch
}

// Publish delivers the notification to every subscriber.
func (d *dispatcher) Publish(n notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subs {
		ch <- n
	}
}
