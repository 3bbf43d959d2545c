package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeComponent records lifecycle calls and can be told to fail
type fakeComponent struct {
	name     string
	initErr  error
	startErr error
	stopErr  error
	events   *[]string
}

func (f *fakeComponent) Meta() Metadata {
	return Metadata{Name: f.name, Type: "test", Version: "0.0.0"}
}

func (f *fakeComponent) Health() HealthStatus {
	return HealthStatus{Healthy: true, LastCheck: time.Now()}
}

func (f *fakeComponent) Initialize() error {
	*f.events = append(*f.events, "init:"+f.name)
	return f.initErr
}

func (f *fakeComponent) Start(_ context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(_ time.Duration) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}

func TestManager_StartStopOrder(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeComponent{name: "a", events: &events})
	m.Register(&fakeComponent{name: "b", events: &events})
	m.Register(&fakeComponent{name: "c", events: &events})

	require.NoError(t, m.StartAll(context.Background(), time.Second))
	require.NoError(t, m.StopAll(time.Second))

	assert.Equal(t, []string{
		"init:a", "start:a",
		"init:b", "start:b",
		"init:c", "start:c",
		"stop:c", "stop:b", "stop:a",
	}, events)
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeComponent{name: "a", events: &events})
	m.Register(&fakeComponent{name: "b", startErr: errors.New("bind failed"), events: &events})
	m.Register(&fakeComponent{name: "c", events: &events})

	err := m.StartAll(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start b")

	// a was started and must be rolled back; c was never touched
	assert.Equal(t, []string{"init:a", "start:a", "init:b", "start:b", "stop:a"}, events)

	states := m.States()
	assert.Equal(t, StateStopped, states["a"])
	assert.Equal(t, StateFailed, states["b"])
	assert.Equal(t, StateCreated, states["c"])
}

func TestManager_DoubleStartRejected(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeComponent{name: "a", events: &events})

	require.NoError(t, m.StartAll(context.Background(), time.Second))
	assert.Error(t, m.StartAll(context.Background(), time.Second))
}

func TestManager_StopCollectsErrors(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeComponent{name: "a", events: &events})
	m.Register(&fakeComponent{name: "b", stopErr: errors.New("drain timeout"), events: &events})

	require.NoError(t, m.StartAll(context.Background(), time.Second))
	err := m.StopAll(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop b")

	// a still stopped despite b failing
	assert.Contains(t, events, "stop:a")
}

func TestManager_Health(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeComponent{name: "a", events: &events})

	health := m.Health()
	require.Contains(t, health, "a")
	assert.True(t, health["a"].Healthy)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
