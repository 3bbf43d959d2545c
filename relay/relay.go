// Package relay publishes delete commands onto the command channel derived
// from a data topic. It never touches the board cache; the upstream data
// source owns row removal and republishes the corrected table.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/krisvansteen/Dashboards/errors"
	"github.com/krisvansteen/Dashboards/natsclient"
	"github.com/krisvansteen/Dashboards/pkg/retry"
)

// Publisher is the transport surface the relay needs. Satisfied by
// natsclient.Client.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// DeleteIntent identifies the row a viewer wants removed. Rugnummer and
// Topic are required; TijdStr and Transponder narrow the match upstream.
type DeleteIntent struct {
	Rugnummer   string `json:"rugnummer"`
	Topic       string `json:"topic"`
	TijdStr     string `json:"tijdstr,omitempty"`
	Transponder string `json:"transponder,omitempty"`
}

// Ack confirms what was published and where.
type Ack struct {
	Status  string         `json:"status"`
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
}

// deletePayload is the wire format of a delete command. Absent optional
// fields are omitted entirely, not sent as empty strings.
type deletePayload struct {
	Rugnummer   string `json:"Rugnummer"`
	TijdStr     string `json:"TijdStr,omitempty"`
	Transponder string `json:"Transponder,omitempty"`
}

// Relay submits delete commands for board rows.
type Relay struct {
	publisher    Publisher
	deleteSuffix string
	retryConfig  retry.Config
	logger       *slog.Logger

	submitted atomic.Int64
	rejected  atomic.Int64
}

// Option configures a Relay
type Option func(*Relay)

// WithLogger sets the relay logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRetryConfig overrides the publish retry policy
func WithRetryConfig(cfg retry.Config) Option {
	return func(r *Relay) {
		r.retryConfig = cfg
	}
}

// NewRelay creates a delete-command relay. deleteSuffix is appended to the
// data topic to derive the command channel.
func NewRelay(publisher Publisher, deleteSuffix string, opts ...Option) *Relay {
	r := &Relay{
		publisher:    publisher,
		deleteSuffix: deleteSuffix,
		retryConfig:  retry.DefaultConfig(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubmitDelete validates the intent and publishes the delete command to the
// topic's command channel. Transient publish failures are retried with
// backoff; validation failures are returned without publishing.
func (r *Relay) SubmitDelete(ctx context.Context, intent DeleteIntent) (Ack, error) {
	if intent.Rugnummer == "" {
		r.rejected.Add(1)
		return Ack{}, errors.WrapInvalid(errors.ErrMissingField, "Relay", "SubmitDelete", "rugnummer required")
	}
	if intent.Topic == "" {
		r.rejected.Add(1)
		return Ack{}, errors.WrapInvalid(errors.ErrMissingField, "Relay", "SubmitDelete", "topic required")
	}
	if strings.HasSuffix(intent.Topic, r.deleteSuffix) {
		r.rejected.Add(1)
		return Ack{}, errors.WrapInvalid(errors.ErrCommandTopic, "Relay", "SubmitDelete", "reject command topic")
	}

	payload := deletePayload{
		Rugnummer:   intent.Rugnummer,
		TijdStr:     intent.TijdStr,
		Transponder: intent.Transponder,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, errors.WrapInvalid(err, "Relay", "SubmitDelete", "encode payload")
	}

	commandTopic := intent.Topic + r.deleteSuffix
	subject := natsclient.TopicToSubject(commandTopic)

	err = retry.Do(ctx, r.retryConfig, func() error {
		if err := r.publisher.Publish(ctx, subject, data); err != nil {
			if errors.IsInvalid(err) {
				return retry.NonRetryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Ack{}, errors.WrapTransient(err, "Relay", "SubmitDelete", "publish "+commandTopic)
	}

	r.submitted.Add(1)
	r.logger.Info("delete command published", "topic", commandTopic, "rugnummer", intent.Rugnummer)

	echo := map[string]any{"Rugnummer": payload.Rugnummer}
	if payload.TijdStr != "" {
		echo["TijdStr"] = payload.TijdStr
	}
	if payload.Transponder != "" {
		echo["Transponder"] = payload.Transponder
	}

	return Ack{Status: "ok", Topic: commandTopic, Payload: echo}, nil
}

// Submitted returns the number of successfully published delete commands
func (r *Relay) Submitted() int64 {
	return r.submitted.Load()
}

// Rejected returns the number of intents rejected before publishing
func (r *Relay) Rejected() int64 {
	return r.rejected.Load()
}
