// Package service orchestrates the hub's chat and training pipelines.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/internal/responder"
	"github.com/mindmesh-ai/companion-hub/internal/risk"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// riskEvalTimeout bounds the background risk evaluation, which may call
// a remote classifier.
const riskEvalTimeout = 15 * time.Second

// ProfileGetter fetches a stored personality profile by ID.
type ProfileGetter interface {
	Get(ctx context.Context, id string) (*model.PersonalityProfile, error)
}

// ChatService turns inbound chat messages into replies. Risk evaluation
// runs concurrently and never blocks delivery of the reply.
type ChatService struct {
	generator *responder.Generator
	profiles  ProfileGetter
	evaluator *risk.Evaluator
	logger    *logger.Logger
}

// NewChatService creates a chat service. profiles may be nil when no
// profile store is configured.
func NewChatService(generator *responder.Generator, profiles ProfileGetter, evaluator *risk.Evaluator, log *logger.Logger) *ChatService {
	return &ChatService{
		generator: generator,
		profiles:  profiles,
		evaluator: evaluator,
		logger:    log,
	}
}

// HandleChat generates a reply for the frame. A missing or unloadable
// profile degrades to the generic supportive path; the user always gets
// a reply.
func (s *ChatService) HandleChat(ctx context.Context, frame model.ChatMessageFrame) model.Reply {
	var profile *model.PersonalityProfile
	if frame.ProfileID != "" && s.profiles != nil {
		p, err := s.profiles.Get(ctx, frame.ProfileID)
		if err != nil {
			s.logger.Warn("profile unavailable, using generic replies",
				zap.String("profile_id", frame.ProfileID),
				zap.Error(err),
			)
		} else {
			profile = p
		}
	}

	reply := s.generator.Generate(frame.Message, frame.ChatHistory, profile)
	metrics.ChatRepliesTotal.WithLabelValues(string(reply.RiskLevel)).Inc()

	// Fire-and-forget: the evaluation result is a side channel that
	// only ever adds an alert, never modifies the already-sent reply.
	go func() {
		evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), riskEvalTimeout)
		defer cancel()
		s.evaluator.EvaluateAndAlert(evalCtx, frame.FromUserID, frame.Message)
	}()

	return reply
}
