// Package ingest subscribes to the board's topic tree and feeds incoming
// table payloads into the cache, notifying viewers after every accepted
// message.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krisvansteen/Dashboards/board"
	"github.com/krisvansteen/Dashboards/component"
	"github.com/krisvansteen/Dashboards/errors"
	"github.com/krisvansteen/Dashboards/natsclient"
)

// Subscriber is the transport surface the pipeline consumes. Satisfied by
// natsclient.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, string, []byte)) error
}

// Notifier receives a content-free signal after every cache update.
type Notifier interface {
	Notify()
}

// Pipeline is the ingestion component. It subscribes to every subject below
// the base topic, decodes JSON payloads, and stores them in the cache.
// Topics ending in the delete suffix are command channels and are discarded.
type Pipeline struct {
	name         string
	baseTopic    string
	deleteSuffix string

	subscriber Subscriber
	cache      *board.Cache
	notifier   Notifier
	logger     *slog.Logger

	running   atomic.Bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	messagesReceived  atomic.Int64
	decodeErrors      atomic.Int64
	commandsDiscarded atomic.Int64

	metrics *metrics
}

var _ component.Lifecycle = (*Pipeline)(nil)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics on the given registry
func WithMetrics(registry metricsRegistry) Option {
	return func(p *Pipeline) {
		p.metrics = newMetrics(registry)
	}
}

// NewPipeline creates the ingestion pipeline for the given base topic.
func NewPipeline(baseTopic, deleteSuffix string, subscriber Subscriber, cache *board.Cache, notifier Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:         "ingest",
		baseTopic:    baseTopic,
		deleteSuffix: deleteSuffix,
		subscriber:   subscriber,
		cache:        cache,
		notifier:     notifier,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Meta returns component metadata
func (p *Pipeline) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "input",
		Description: "NATS topic ingestion into the board cache",
		Version:     "1.0.0",
	}
}

// Health returns the runtime health of the pipeline
func (p *Pipeline) Health() component.HealthStatus {
	p.mu.RLock()
	startTime := p.startTime
	p.mu.RUnlock()

	var uptime time.Duration
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}

	return component.HealthStatus{
		Healthy:    p.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(p.decodeErrors.Load()),
		Uptime:     uptime,
	}
}

// Initialize validates the pipeline wiring
func (p *Pipeline) Initialize() error {
	if p.subscriber == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "Initialize", "subscriber required")
	}
	if p.cache == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "Initialize", "cache required")
	}
	if p.baseTopic == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "Initialize", "base topic required")
	}
	return nil
}

// Start subscribes to the wildcard subject below the base topic.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	subject := natsclient.WildcardSubject(p.baseTopic)
	if err := p.subscriber.Subscribe(subCtx, subject, p.handleMessage); err != nil {
		cancel()
		p.cancel = nil
		return errors.WrapTransient(err, "Pipeline", "Start", "subscribe "+subject)
	}

	p.running.Store(true)
	p.startTime = time.Now()
	p.logger.Info("ingestion started", "subject", subject)
	return nil
}

// Stop ends message handling. The subscription itself is drained when the
// NATS client closes.
func (p *Pipeline) Stop(_ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return nil
	}

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running.Store(false)
	p.logger.Info("ingestion stopped",
		"messages", p.messagesReceived.Load(),
		"decode_errors", p.decodeErrors.Load())
	return nil
}

// handleMessage runs on the NATS delivery goroutine for every message below
// the base topic. The subscription is only drained when the NATS client
// closes, so messages delivered after Stop must be dropped here.
func (p *Pipeline) handleMessage(ctx context.Context, subject string, data []byte) {
	if !p.running.Load() || ctx.Err() != nil {
		return
	}

	topic := natsclient.SubjectToTopic(subject)

	// Command channels carry outbound delete requests, never board data.
	if strings.HasSuffix(topic, p.deleteSuffix) {
		p.commandsDiscarded.Add(1)
		if p.metrics != nil {
			p.metrics.commandsDiscarded.Inc()
		}
		return
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		p.decodeErrors.Add(1)
		if p.metrics != nil {
			p.metrics.decodeErrors.Inc()
		}
		p.logger.Warn("discarding undecodable payload", "topic", topic, "error", err)
		return
	}

	p.cache.Put(topic, payload)

	p.messagesReceived.Add(1)
	if p.metrics != nil {
		p.metrics.messagesReceived.WithLabelValues(topic).Inc()
	}

	if p.notifier != nil {
		p.notifier.Notify()
	}
}

// MessagesReceived returns the number of accepted data messages
func (p *Pipeline) MessagesReceived() int64 {
	return p.messagesReceived.Load()
}

// DecodeErrors returns the number of discarded undecodable payloads
func (p *Pipeline) DecodeErrors() int64 {
	return p.decodeErrors.Load()
}

// CommandsDiscarded returns the number of delete-command messages ignored
func (p *Pipeline) CommandsDiscarded() int64 {
	return p.commandsDiscarded.Load()
}
