package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", c.URL())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, -1, c.maxReconnects)
	assert.Equal(t, 2*time.Second, c.reconnectWait)
	assert.Nil(t, c.GetConnection())
}

func TestNewClient_AppliesOptions(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithMaxReconnects(5),
		WithReconnectWait(time.Second),
		WithName("liveboard"),
		WithToken("s3cret"),
	)
	require.NoError(t, err)

	assert.Equal(t, 5, c.maxReconnects)
	assert.Equal(t, time.Second, c.reconnectWait)
	assert.Equal(t, "liveboard", c.clientName)
	assert.Equal(t, "s3cret", c.token)
}

func TestConnectionStatus_String(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

func TestClient_PublishWithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Publish(context.Background(), "race.pass", []byte("{}"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_SubscribeWithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Subscribe(context.Background(), "race.>", func(context.Context, string, []byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_CloseIdempotent(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_ConnectAfterClose(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	err = c.Connect(context.Background())
	require.Error(t, err)
}

func TestClient_WaitForConnectionTimeout(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = c.WaitForConnection(ctx)
	assert.ErrorIs(t, err, ErrConnectionTimeout)
}

func TestTopicToSubject(t *testing.T) {
	assert.Equal(t, "race.pass", TopicToSubject("race/pass"))
	assert.Equal(t, "race", TopicToSubject("race"))
	assert.Equal(t, "race.lap.totals", TopicToSubject("race/lap/totals"))
}

func TestSubjectToTopic(t *testing.T) {
	assert.Equal(t, "race/pass", SubjectToTopic("race.pass"))
	assert.Equal(t, "race", SubjectToTopic("race"))
}

func TestWildcardSubject(t *testing.T) {
	assert.Equal(t, "race.>", WildcardSubject("race"))
	assert.Equal(t, "race.stage.>", WildcardSubject("race/stage"))
}
