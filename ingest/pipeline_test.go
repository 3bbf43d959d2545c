package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisvansteen/Dashboards/board"
	"github.com/krisvansteen/Dashboards/schema"
)

// fakeSubscriber records the subscription and lets tests inject messages
// directly into the handler.
type fakeSubscriber struct {
	mu      sync.Mutex
	subject string
	handler func(context.Context, string, []byte)
	err     error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, subject string, handler func(context.Context, string, []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subject = subject
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) deliver(subject string, data []byte) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	handler(context.Background(), subject, data)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (c *countingNotifier) Notify() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeSubscriber, *board.Cache, *countingNotifier) {
	t.Helper()

	cache := board.NewCache(schema.NewResolver(nil))
	sub := &fakeSubscriber{}
	notifier := &countingNotifier{}
	p := NewPipeline("race", "/delete", sub, cache, notifier)
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))
	return p, sub, cache, notifier
}

func TestPipeline_SubscribesWildcardBelowBase(t *testing.T) {
	_, sub, _, _ := newTestPipeline(t)
	assert.Equal(t, "race.>", sub.subject)
}

func TestPipeline_StoresDecodedPayload(t *testing.T) {
	p, sub, cache, notifier := newTestPipeline(t)

	sub.deliver("race.pass", []byte(`[{"Rang":1,"Naam":"Aerts"}]`))

	snap := cache.Snapshot()
	require.Equal(t, []string{"race/pass"}, snap.Topics)
	require.Len(t, snap.Rows["race/pass"], 1)
	assert.Equal(t, "Aerts", snap.Rows["race/pass"][0]["Naam"])
	assert.Equal(t, int64(1), p.MessagesReceived())
	assert.Equal(t, 1, notifier.count())
}

func TestPipeline_DiscardsCommandTopics(t *testing.T) {
	p, sub, cache, notifier := newTestPipeline(t)

	sub.deliver("race.pass.delete", []byte(`{"Rugnummer":"42"}`))

	assert.Equal(t, 0, cache.TopicCount())
	assert.Equal(t, int64(1), p.CommandsDiscarded())
	assert.Equal(t, int64(0), p.MessagesReceived())
	assert.Equal(t, 0, notifier.count())
}

func TestPipeline_DiscardsUndecodablePayload(t *testing.T) {
	p, sub, cache, _ := newTestPipeline(t)

	sub.deliver("race.pass", []byte(`[{"Rang":1}]`))
	sub.deliver("race.pass", []byte(`{not json`))

	// Prior state survives a decode failure.
	snap := cache.Snapshot()
	require.Len(t, snap.Rows["race/pass"], 1)
	assert.Equal(t, int64(1), p.DecodeErrors())
	assert.Equal(t, int64(1), p.MessagesReceived())
}

func TestPipeline_InitializeRequiresWiring(t *testing.T) {
	p := NewPipeline("race", "/delete", nil, nil, nil)
	require.Error(t, p.Initialize())

	p = NewPipeline("", "/delete", &fakeSubscriber{}, board.NewCache(schema.NewResolver(nil)), nil)
	require.Error(t, p.Initialize())
}

func TestPipeline_StartIsIdempotent(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Health().Healthy)
}

func TestPipeline_StopEndsHandling(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	require.NoError(t, p.Stop(time.Second))
	assert.False(t, p.Health().Healthy)
	require.NoError(t, p.Stop(time.Second))
}

func TestPipeline_StoppedPipelineIgnoresDeliveries(t *testing.T) {
	p, sub, cache, notifier := newTestPipeline(t)

	require.NoError(t, p.Stop(time.Second))

	sub.deliver("race.pass", []byte(`[{"Rang":1}]`))

	assert.Equal(t, 0, cache.TopicCount())
	assert.Equal(t, 0, notifier.count())
	assert.Equal(t, int64(0), p.MessagesReceived())
}

func TestPipeline_SubscribeFailure(t *testing.T) {
	cache := board.NewCache(schema.NewResolver(nil))
	sub := &fakeSubscriber{err: assert.AnError}
	p := NewPipeline("race", "/delete", sub, cache, nil)

	require.NoError(t, p.Initialize())
	err := p.Start(context.Background())
	require.Error(t, err)
	assert.False(t, p.Health().Healthy)
}
