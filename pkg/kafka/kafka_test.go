package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Query   string `json:"query"`
	Results int    `json:"results"`
}

func TestEncodeDecodeJSON(t *testing.T) {
	msg, err := encode(Event{Key: "chatbot", Value: sample{Query: "funny", Results: 3}})
	require.NoError(t, err)
	assert.Equal(t, []byte("chatbot"), msg.Key)
	assert.JSONEq(t, `{"query":"funny","results":3}`, string(msg.Value))

	got, err := DecodeJSON[sample](msg.Value)
	require.NoError(t, err)
	assert.Equal(t, sample{Query: "funny", Results: 3}, got)
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := encode(Event{Key: "bad", Value: make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestDecodeJSONError(t *testing.T) {
	_, err := DecodeJSON[sample]([]byte("{not json"))
	assert.ErrorContains(t, err, "decoding kafka message")
}

func TestPingNoBrokers(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestPingUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := Pinger{"127.0.0.1:1"}.Ping(ctx)
	assert.ErrorContains(t, err, "127.0.0.1:1")
}
