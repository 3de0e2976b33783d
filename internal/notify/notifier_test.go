package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func TestChannelNotifier_SubscriberReceivesPublishedEvent(t *testing.T) {
	n := NewChannelNotifier()
	jobID := uuid.New()

	ch, unsubscribe := n.Subscribe(jobID)
	defer unsubscribe()

	n.Publish(piimodel.ProgressEvent{JobID: jobID, Status: piimodel.StatusSampling, Percent: 40})

	select {
	case event := <-ch:
		assert.Equal(t, jobID, event.JobID)
		assert.Equal(t, 40, event.Percent)
	case <-time.After(time.Second):
		t.Fatal("expected to receive published event")
	}
}

func TestChannelNotifier_EventsForOtherJobsAreNotDelivered(t *testing.T) {
	n := NewChannelNotifier()
	jobID := uuid.New()
	otherJobID := uuid.New()

	ch, unsubscribe := n.Subscribe(jobID)
	defer unsubscribe()

	n.Publish(piimodel.ProgressEvent{JobID: otherJobID, Percent: 10})

	select {
	case event := <-ch:
		t.Fatalf("unexpected event for subscribed job: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewChannelNotifier()
	jobID := uuid.New()

	ch, unsubscribe := n.Subscribe(jobID)
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}

func TestChannelNotifier_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	n := NewChannelNotifier()
	jobID := uuid.New()

	_, unsubscribe := n.Subscribe(jobID)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		n.Publish(piimodel.ProgressEvent{JobID: jobID, Percent: i})
	}
}

func TestNoopNotifier_SubscribeReturnsClosedChannel(t *testing.T) {
	n := NewNoop()
	ch, unsubscribe := n.Subscribe(uuid.New())
	defer unsubscribe()

	_, open := <-ch
	require.False(t, open)
}
