package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-fraud-cases/internal/service"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// DefaultSubjectPrefix is prepended to every event type.
const DefaultSubjectPrefix = "notifications.fraud"

const publishTimeout = 5 * time.Second

// NotificationPublisher publishes case lifecycle events to the configured
// sink for consumption by the notifications service.
//
// Subject convention: notifications.fraud.<event_type>
// Event types: case_created, case_status_changed, case_comment_added,
// case_document_recorded, case_investigation_updated
//
// All publish operations are non-fatal. Errors are logged and never returned
// to the caller, so a sink outage never fails a committed case operation.
type NotificationPublisher struct {
	sink   Sink
	prefix string
	log    zerolog.Logger
}

var _ service.EventPublisher = (*NotificationPublisher)(nil)

// NotificationEvent is the JSON schema published to the sink.
type NotificationEvent struct {
	EventType    string         `json:"event_type"`
	CaseID       string         `json:"case_id"`
	ActorID      string         `json:"actor_id"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Severity     string         `json:"severity"`
	Category     string         `json:"category"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher over sink. An empty prefix
// uses DefaultSubjectPrefix.
func NewNotificationPublisher(sink Sink, prefix string, log zerolog.Logger) *NotificationPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NotificationPublisher{
		sink:   sink,
		prefix: prefix,
		log:    log.With().Str("component", "notifications").Logger(),
	}
}

// PublishCaseEvent publishes one case event.
// Subject: <prefix>.<eventType>
func (p *NotificationPublisher) PublishCaseEvent(ctx context.Context, eventType, caseID, actorID string, payload map[string]any) {
	if p.sink == nil {
		return
	}

	event := &NotificationEvent{
		EventType:    eventType,
		CaseID:       caseID,
		ActorID:      actorID,
		ResourceType: "case",
		ResourceID:   caseID,
		Severity:     severityFor(eventType, payload),
		Category:     "fraud_case",
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s.%s", p.prefix, eventType)
	if err := p.sink.Publish(ctx, Message{Subject: subject, Key: caseID, Data: data}); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("case_id", caseID).
			Msg("notification: failed to publish event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("case_id", caseID).
		Msg("notification: event published")
}

// Close releases the sink.
func (p *NotificationPublisher) Close() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}

func severityFor(eventType string, payload map[string]any) string {
	if eventType != service.EventCaseStatusChanged {
		return "info"
	}
	switch payload["to"] {
	case workflow.StatusEscalated, workflow.StatusRejected:
		return "warning"
	}
	return "info"
}
