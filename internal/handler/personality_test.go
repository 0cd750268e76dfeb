package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindmesh-ai/companion-hub/internal/middleware"
	"github.com/mindmesh-ai/companion-hub/internal/model"
	natsclient "github.com/mindmesh-ai/companion-hub/internal/nats"
	"github.com/mindmesh-ai/companion-hub/internal/personality"
	"github.com/mindmesh-ai/companion-hub/internal/service"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

type memoryProfiles struct {
	byID map[string]*model.PersonalityProfile
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{byID: make(map[string]*model.PersonalityProfile)}
}

func (m *memoryProfiles) Get(ctx context.Context, id string) (*model.PersonalityProfile, error) {
	profile, ok := m.byID[id]
	if !ok {
		return nil, natsclient.ErrProfileNotFound
	}
	return profile, nil
}

func (m *memoryProfiles) Put(ctx context.Context, profile *model.PersonalityProfile) error {
	m.byID[profile.ID] = profile
	return nil
}

func newTestHandler(store service.ProfileStore) *PersonalityHandler {
	log := logger.NewNop()
	svc := service.NewPersonalityService(personality.NewExtractor(log), store, log)
	return NewPersonalityHandler(svc, 1<<20, log)
}

func asUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

const sampleTranscript = "12/03/24, 9:41 PM - Alice: I have an exam tomorrow and I'm so stressed\n" +
	"12/03/24, 9:42 PM - Bob: Don't worry, you'll do great! Take a deep breath\n" +
	"12/03/24, 9:43 PM - Alice: This exam is really stressing me out\n" +
	"12/03/24, 9:44 PM - Bob: Breathe and focus, one page at a time"

// newMultipartTranscript writes a transcript file field into buf and
// returns the Content-Type header for the request.
func newMultipartTranscript(t *testing.T, buf *bytes.Buffer, transcript string) string {
	t.Helper()
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("transcript", "chat.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.WriteString(part, transcript); err != nil {
		t.Fatalf("failed to write transcript: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return writer.FormDataContentType()
}

func TestTrainFromJSONBody(t *testing.T) {
	store := newMemoryProfiles()
	h := newTestHandler(store)

	body, _ := json.Marshal(TrainRequest{Transcript: sampleTranscript})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/personality/train", bytes.NewReader(body)), "u1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Train(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp TrainResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.ProfileID == "" {
		t.Error("profileId missing from response")
	}
	if resp.MessageCount != 4 {
		t.Errorf("messageCount = %d, want 4", resp.MessageCount)
	}

	stored, ok := store.byID[resp.ProfileID]
	if !ok {
		t.Fatal("profile was not persisted")
	}
	if stored.OwnerID != "u1" {
		t.Errorf("OwnerID = %q, want u1", stored.OwnerID)
	}
}

func TestTrainFromMultipartUpload(t *testing.T) {
	h := newTestHandler(newMemoryProfiles())

	var buf bytes.Buffer
	writer := newMultipartTranscript(t, &buf, sampleTranscript)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/personality/train", &buf), "u1")
	req.Header.Set("Content-Type", writer)
	rec := httptest.NewRecorder()

	h.Train(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestTrainRejectsUnparseableTranscript(t *testing.T) {
	h := newTestHandler(newMemoryProfiles())

	body, _ := json.Marshal(TrainRequest{Transcript: "no timestamps in here at all"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/personality/train", bytes.NewReader(body)), "u1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Train(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTrainRejectsEmptyBody(t *testing.T) {
	h := newTestHandler(newMemoryProfiles())

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/personality/train", strings.NewReader(`{"transcript":""}`)), "u1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Train(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetProfile(t *testing.T) {
	store := newMemoryProfiles()
	h := newTestHandler(store)

	profileID := uuid.NewString()
	store.byID[profileID] = &model.PersonalityProfile{
		ID:      profileID,
		OwnerID: "u1",
		Name:    "Bob",
	}

	router := chi.NewRouter()
	router.Get("/api/v1/personality/{id}", h.Get)

	tests := []struct {
		name       string
		requester  string
		profileID  string
		wantStatus int
	}{
		{"owner", "u1", profileID, http.StatusOK},
		{"other user", "u2", profileID, http.StatusForbidden},
		{"unknown profile", "u1", uuid.NewString(), http.StatusNotFound},
		{"malformed id", "u1", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/personality/"+tt.profileID, nil), tt.requester)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
