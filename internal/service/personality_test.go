package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mindmesh-ai/companion-hub/internal/personality"
	"github.com/mindmesh-ai/companion-hub/internal/transcript"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

func newPersonalityService(store ProfileStore) *PersonalityService {
	log := logger.NewNop()
	return NewPersonalityService(personality.NewExtractor(log), store, log)
}

func TestTrainStoresProfile(t *testing.T) {
	store := &fakeProfiles{}
	svc := newPersonalityService(store)

	raw := strings.Join([]string{
		"12/03/24, 9:41 PM - Alice: I have an exam tomorrow and I'm so stressed",
		"12/03/24, 9:42 PM - Bob: Don't worry, you'll do great! Take a deep breath",
		"12/03/24, 9:43 PM - Alice: This exam is really stressing me out",
		"12/03/24, 9:44 PM - Bob: Breathe and focus, one page at a time",
	}, "\n")

	profile, err := svc.Train(context.Background(), "owner-1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.ID == "" {
		t.Error("profile ID should be assigned")
	}
	if profile.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want owner-1", profile.OwnerID)
	}
	if profile.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if profile.MessageCount != 4 {
		t.Errorf("MessageCount = %d, want 4", profile.MessageCount)
	}

	if len(store.puts) != 1 {
		t.Fatalf("store received %d profiles, want 1", len(store.puts))
	}
	if store.puts[0].ID != profile.ID {
		t.Error("stored profile differs from the returned one")
	}
}

func TestTrainEmptyTranscript(t *testing.T) {
	svc := newPersonalityService(&fakeProfiles{})

	_, err := svc.Train(context.Background(), "owner-1", "nothing parseable here")
	if !errors.Is(err, transcript.ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := &fakeProfiles{}
	svc := newPersonalityService(store)

	raw := "12/03/24, 9:41 PM - Alice: hello there friend"
	profile, err := svc.Train(context.Background(), "owner-1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.profile = profile

	got, err := svc.Get(context.Background(), "owner-1", profile.ID)
	if err != nil {
		t.Fatalf("owner fetch failed: %v", err)
	}
	if got.ID != profile.ID {
		t.Errorf("fetched ID = %q, want %q", got.ID, profile.ID)
	}

	if _, err := svc.Get(context.Background(), "someone-else", profile.ID); !errors.Is(err, ErrNotProfileOwner) {
		t.Errorf("err = %v, want ErrNotProfileOwner", err)
	}
}
