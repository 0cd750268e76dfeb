package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mindmesh-ai/companion-hub/internal/model"
)

// ErrProfileNotFound is returned when no profile exists for an ID.
var ErrProfileNotFound = errors.New("personality profile not found")

// ProfileStore persists personality profiles in a JetStream key-value
// bucket. Profiles are written once after training and read on each
// chat_message that references them.
type ProfileStore struct {
	kv jetstream.KeyValue
}

// NewProfileStore opens (or creates) the profile bucket.
func NewProfileStore(ctx context.Context, client *Client, bucket string) (*ProfileStore, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "Trained personality profiles",
			History:     1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create profile bucket: %w", err)
		}
	}

	return &ProfileStore{kv: kv}, nil
}

// Put stores a profile under its ID.
func (s *ProfileStore) Put(ctx context.Context, profile *model.PersonalityProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if _, err := s.kv.Put(ctx, profile.ID, data); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}

	return nil
}

// Get fetches a profile by ID.
func (s *ProfileStore) Get(ctx context.Context, id string) (*model.PersonalityProfile, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	var profile model.PersonalityProfile
	if err := json.Unmarshal(entry.Value(), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// Delete removes a profile. Missing keys are not an error.
func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, id); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
