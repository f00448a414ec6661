package protocol_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/protocol"
)

func TestTimestamp(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 2, 3, 4, 5, 6_700_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-01-02T02:04:05.006Z", protocol.Timestamp(at))
	assert.Equal(t, "2024-01-02T02:04:05.000Z", protocol.Timestamp(at.Truncate(time.Second)))
}

func TestFrames_JSON(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	id := uuid.MustParse("9b2d3c1e-4f5a-4b6c-8d7e-0f1a2b3c4d5e")
	msg := broker.Message{ID: id, Payload: json.RawMessage(`{"id":"9b2d3c1e-4f5a-4b6c-8d7e-0f1a2b3c4d5e","payload":"hi"}`)}

	cases := []struct {
		name  string
		frame any
		want  string
	}{
		{
			"ack",
			protocol.NewAck(json.RawMessage(`"r1"`), "orders", now),
			`{"type":"ack","request_id":"r1","topic":"orders","status":"ok","ts":"2024-05-06T07:08:09.000Z"}`,
		},
		{
			"ack_without_topic_or_request",
			protocol.NewAck(nil, "", now),
			`{"type":"ack","status":"ok","ts":"2024-05-06T07:08:09.000Z"}`,
		},
		{
			"error",
			protocol.NewError(json.RawMessage(`7`), protocol.CodeBadRequest, protocol.MsgUnknownType, now),
			`{"type":"error","request_id":7,"error":{"code":"BAD_REQUEST","message":"Unknown message type"},"ts":"2024-05-06T07:08:09.000Z"}`,
		},
		{
			"event",
			protocol.NewEvent("orders", msg, now),
			`{"type":"event","topic":"orders","message":{"id":"9b2d3c1e-4f5a-4b6c-8d7e-0f1a2b3c4d5e","payload":"hi"},"ts":"2024-05-06T07:08:09.000Z"}`,
		},
		{
			"info_without_topic",
			protocol.NewInfo("", protocol.NoticeServerShutdown, now),
			`{"type":"info","msg":"server_shutdown","ts":"2024-05-06T07:08:09.000Z"}`,
		},
		{
			"pong",
			protocol.NewPong(json.RawMessage(`{"n":1}`), now),
			`{"type":"pong","request_id":{"n":1},"ts":"2024-05-06T07:08:09.000Z"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tc.frame)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}
