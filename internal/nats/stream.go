package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mindmesh-ai/companion-hub/internal/model"
)

const (
	// AlertStreamName is the name of the crisis alert stream.
	AlertStreamName = "ALERTS"

	// alertSubjectPrefix is the prefix for all crisis alert subjects.
	alertSubjectPrefix = "alerts.crisis"
)

// AlertPublisher persists crisis alerts to a JetStream stream so the
// monitoring side (counselor dashboard, escalation workers) can consume
// them independently of the chat reply path.
type AlertPublisher struct {
	client *Client
}

// NewAlertPublisher creates a new alert publisher.
func NewAlertPublisher(client *Client) *AlertPublisher {
	return &AlertPublisher{client: client}
}

// EnsureStream ensures the alert stream exists with proper configuration.
func (p *AlertPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, AlertStreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        AlertStreamName,
		Subjects:    []string{alertSubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Crisis alerts raised by the risk evaluator",
	})
	if err != nil {
		return fmt.Errorf("failed to create alert stream: %w", err)
	}

	return nil
}

// AlertSubject returns the subject for a user's crisis alerts.
func AlertSubject(userID string) string {
	return fmt.Sprintf("%s.%s", alertSubjectPrefix, userID)
}

// Publish publishes a crisis alert.
func (p *AlertPublisher) Publish(ctx context.Context, alert *model.CrisisAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, AlertSubject(alert.UserID), data); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	return nil
}
