// Package risk implements crisis detection as a pluggable policy: a
// local keyword evaluator that is always available, and an optional
// remote classifier. Uncertainty fails closed — under-escalation is the
// more dangerous error.
package risk

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/llm"
	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// Keyword tiers, most severe first. The high tier is deliberately broad:
// a false alert costs a review, a miss costs far more.
var (
	highRiskMarkers = []string{
		"kill myself", "suicide", "suicidal", "end it all", "want to die",
		"end my life", "hurt myself", "self harm", "self-harm",
		"no reason to live", "better off without me", "can't go on",
		"cant go on",
	}
	moderateRiskMarkers = []string{
		"hopeless", "worthless", "give up", "giving up", "no point",
		"can't take it", "cant take it", "empty inside", "hate myself",
		"completely alone", "nobody cares",
	}
)

// Scan performs the local keyword evaluation of a single message.
// The result is a judgment about this message only.
func Scan(message string) model.RiskAssessment {
	lower := strings.ToLower(message)

	for _, marker := range highRiskMarkers {
		if strings.Contains(lower, marker) {
			return model.RiskAssessment{Level: model.RiskHigh, EscalationRequired: true}
		}
	}
	for _, marker := range moderateRiskMarkers {
		if strings.Contains(lower, marker) {
			return model.RiskAssessment{Level: model.RiskModerate}
		}
	}
	return model.RiskAssessment{Level: model.RiskLow}
}

// AlertSink receives confirmed crisis alerts. Failures are logged by the
// evaluator, never swallowed silently, but they do not block the chat
// reply path.
type AlertSink interface {
	Publish(ctx context.Context, alert *model.CrisisAlert) error
}

const classifierSystemPrompt = `You are a conservative crisis triage classifier for a mental-health support chat.
Given one user message, respond with exactly one word: HIGH if the message suggests self-harm or suicidal intent, MODERATE if it expresses despair or hopelessness, LOW otherwise.`

// Evaluator combines the local scan with an optional remote classifier
// and publishes alerts for confirmed high-risk messages.
type Evaluator struct {
	remote    llm.Client // nil disables the remote classifier
	modelName string
	alerts    AlertSink
	logger    *logger.Logger
}

// NewEvaluator creates an evaluator. remote and alerts may be nil.
func NewEvaluator(remote llm.Client, modelName string, alerts AlertSink, log *logger.Logger) *Evaluator {
	return &Evaluator{
		remote:    remote,
		modelName: modelName,
		alerts:    alerts,
		logger:    log,
	}
}

// Result is the combined evaluation outcome.
type Result struct {
	IsHighRisk bool
	Severity   model.RiskLevel
	Source     string // "keyword" or "classifier"
}

// Evaluate inspects a message with the local scan and, when configured,
// the remote classifier. A remote failure is treated as high risk.
func (e *Evaluator) Evaluate(ctx context.Context, message string) Result {
	local := Scan(message)
	result := Result{
		IsHighRisk: local.Level == model.RiskHigh,
		Severity:   local.Level,
		Source:     "keyword",
	}
	metrics.RiskEvaluationsTotal.WithLabelValues("keyword", string(local.Level)).Inc()

	// The local high tier is already conclusive.
	if result.IsHighRisk || e.remote == nil {
		return result
	}

	severity, err := e.classify(ctx, message)
	if err != nil {
		// Fail closed: an unreachable classifier must never downgrade
		// a potentially dangerous message.
		e.logger.Error("remote risk classifier failed, treating as high risk",
			zap.Error(err),
		)
		metrics.RiskEvaluationsTotal.WithLabelValues("classifier", "error").Inc()
		return Result{IsHighRisk: true, Severity: model.RiskHigh, Source: "classifier"}
	}
	metrics.RiskEvaluationsTotal.WithLabelValues("classifier", string(severity)).Inc()

	if riskRank(severity) > riskRank(result.Severity) {
		result.Severity = severity
		result.Source = "classifier"
		result.IsHighRisk = severity == model.RiskHigh
	}
	return result
}

// EvaluateAndAlert runs Evaluate and raises an alert for high-risk
// outcomes. It is intended to run concurrently with reply delivery; its
// result only ever adds an alert, never modifies an already-sent reply.
func (e *Evaluator) EvaluateAndAlert(ctx context.Context, userID, message string) Result {
	result := e.Evaluate(ctx, message)
	if !result.IsHighRisk {
		return result
	}

	e.logger.Warn("high-risk message detected",
		zap.String("user_id", userID),
		zap.String("source", result.Source),
	)

	if e.alerts == nil {
		return result
	}

	alert := &model.CrisisAlert{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Message:   message,
		Severity:  result.Severity,
		Source:    result.Source,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.alerts.Publish(ctx, alert); err != nil {
		// The user still gets their reply; the failure must be loud.
		e.logger.Error("failed to publish crisis alert",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return result
	}
	metrics.CrisisAlertsTotal.Inc()
	return result
}

func (e *Evaluator) classify(ctx context.Context, message string) (model.RiskLevel, error) {
	resp, err := e.remote.Complete(ctx, &llm.CompletionRequest{
		Model:     e.modelName,
		System:    classifierSystemPrompt,
		Messages:  []llm.ChatMessage{{Role: "user", Content: message}},
		MaxTokens: 8,
	})
	if err != nil {
		return model.RiskHigh, err
	}

	switch strings.ToUpper(strings.TrimSpace(resp.Content)) {
	case "HIGH":
		return model.RiskHigh, nil
	case "MODERATE":
		return model.RiskModerate, nil
	case "LOW":
		return model.RiskLow, nil
	default:
		// An answer we cannot parse is an answer we cannot trust.
		return model.RiskHigh, nil
	}
}

func riskRank(level model.RiskLevel) int {
	switch level {
	case model.RiskHigh:
		return 2
	case model.RiskModerate:
		return 1
	}
	return 0
}
