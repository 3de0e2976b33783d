// Package notify fans scan progress events out to subscribers through a
// mutex-protected registry of per-job channels.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Notifier publishes job progress events; the Job Manager calls Publish on
every state transition. */
type Notifier interface {
	Publish(event piimodel.ProgressEvent)
	Subscribe(jobID uuid.UUID) (<-chan piimodel.ProgressEvent, func())
}

const subscriberBuffer = 16

/* ChannelNotifier is an in-process channel fan-out: subscribers register
for a job ID and receive every event published for it until they
unsubscribe. A slow subscriber never blocks Publish — events are dropped
for that subscriber rather than stalling the publishing goroutine. */
type ChannelNotifier struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[int]chan piimodel.ProgressEvent
	nextID      int
}

func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{
		subscribers: make(map[uuid.UUID]map[int]chan piimodel.ProgressEvent),
	}
}

func (n *ChannelNotifier) Publish(event piimodel.ProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subscribers[event.JobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

/* Subscribe registers a new listener for jobID's events and returns the
channel plus an unsubscribe function the caller must invoke when done. */
func (n *ChannelNotifier) Subscribe(jobID uuid.UUID) (<-chan piimodel.ProgressEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subscribers[jobID] == nil {
		n.subscribers[jobID] = make(map[int]chan piimodel.ProgressEvent)
	}
	id := n.nextID
	n.nextID++
	ch := make(chan piimodel.ProgressEvent, subscriberBuffer)
	n.subscribers[jobID][id] = ch

	unsubscribe := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.subscribers[jobID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(n.subscribers, jobID)
			}
		}
		close(ch)
	}
	return ch, unsubscribe
}

var _ Notifier = (*ChannelNotifier)(nil)

/* noopNotifier discards every event; used when callers don't need progress
streaming (e.g. batch CLI runs). */
type noopNotifier struct{}

func NewNoop() Notifier { return noopNotifier{} }

func (noopNotifier) Publish(piimodel.ProgressEvent) {}
func (noopNotifier) Subscribe(uuid.UUID) (<-chan piimodel.ProgressEvent, func()) {
	ch := make(chan piimodel.ProgressEvent)
	close(ch)
	return ch, func() {}
}
