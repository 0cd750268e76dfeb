package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/internal/personality"
	"github.com/mindmesh-ai/companion-hub/internal/transcript"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// ErrNotProfileOwner is returned when a user requests a profile trained
// by someone else.
var ErrNotProfileOwner = errors.New("profile belongs to another user")

// ProfileStore persists trained profiles.
type ProfileStore interface {
	ProfileGetter
	Put(ctx context.Context, profile *model.PersonalityProfile) error
}

// PersonalityService runs the offline training pipeline: parse the
// uploaded transcript, extract a profile, persist it, and hand back the
// profile ID used by later chat_message frames.
type PersonalityService struct {
	extractor *personality.Extractor
	profiles  ProfileStore
	logger    *logger.Logger
}

// NewPersonalityService creates a personality training service.
func NewPersonalityService(extractor *personality.Extractor, profiles ProfileStore, log *logger.Logger) *PersonalityService {
	return &PersonalityService{
		extractor: extractor,
		profiles:  profiles,
		logger:    log,
	}
}

// Train parses rawTranscript and stores the extracted profile for ownerID.
func (s *PersonalityService) Train(ctx context.Context, ownerID, rawTranscript string) (*model.PersonalityProfile, error) {
	start := time.Now()

	messages, err := transcript.Parse(rawTranscript)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	profile, err := s.extractor.Extract(messages)
	if err != nil {
		return nil, fmt.Errorf("extract personality: %w", err)
	}

	profile.ID = uuid.Must(uuid.NewV7()).String()
	profile.OwnerID = ownerID
	profile.CreatedAt = time.Now().UTC()

	if err := s.profiles.Put(ctx, profile); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}

	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	metrics.ProfilesTrained.Inc()

	s.logger.Info("personality profile trained",
		zap.String("profile_id", profile.ID),
		zap.String("owner_id", ownerID),
		zap.Int("messages", profile.MessageCount),
		zap.Int("patterns", len(profile.ResponsePatterns)),
		zap.Duration("took", time.Since(start)),
	)

	return profile, nil
}

// Get fetches a profile, enforcing that the requester owns it.
func (s *PersonalityService) Get(ctx context.Context, requesterID, profileID string) (*model.PersonalityProfile, error) {
	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.OwnerID != requesterID {
		return nil, ErrNotProfileOwner
	}
	return profile, nil
}
