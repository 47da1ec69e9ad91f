package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHubClient(hub *Hub, topic, id string) *Client {
	return &Client{
		ID:    id,
		Topic: topic,
		hub:   hub,
		send:  make(chan WSMessage, 8),
	}
}

func TestHub_BroadcastReachesTopicClientsOnly(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	activity := newHubClient(hub, TopicActivity, "a1")
	form := newHubClient(hub, TopicRegistration, "r1")
	hub.Register(activity)
	hub.Register(form)

	hub.BroadcastToTopic(TopicActivity, "registration_created", map[string]string{"id": "x"})

	msg := <-activity.send
	require.Equal(t, "registration_created", msg.Event)
	require.Empty(t, form.send, "other topics must not receive the event")
}

func TestHub_SendToClientTargetsOneConnection(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	first := newHubClient(hub, TopicRegistration, "r1")
	second := newHubClient(hub, TopicRegistration, "r2")
	hub.Register(first)
	hub.Register(second)

	hub.SendToClient(TopicRegistration, "r2", "member_resolution", map[string]bool{"found": true})

	msg := <-second.send
	require.Equal(t, "member_resolution", msg.Event)
	require.Empty(t, first.send)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newHubClient(hub, TopicActivity, "a1")
	hub.Register(c)
	hub.Unregister(c)

	hub.BroadcastToTopic(TopicActivity, "registration_created", nil)
	require.Empty(t, c.send)
}
