package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rps_webapp/internal/logger"
)

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", logger.Discard())
	require.Error(t, err)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var p Publisher = &r

	p.Publish(SubjectRoomCreated, RoomEvent{RoomID: "a", Slot: 1})
	p.Publish(SubjectRoomJoined, RoomEvent{RoomID: "a", Slot: 2})

	assert.Equal(t, []string{SubjectRoomCreated, SubjectRoomJoined}, r.Subjects())
	assert.Equal(t, "a", r.Events[1].Payload.(RoomEvent).RoomID)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(SubjectMatchResolved, MatchEvent{})
	p.Close()
}
