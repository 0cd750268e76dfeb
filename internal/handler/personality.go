package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/middleware"
	"github.com/mindmesh-ai/companion-hub/internal/model"
	natsclient "github.com/mindmesh-ai/companion-hub/internal/nats"
	"github.com/mindmesh-ai/companion-hub/internal/service"
	"github.com/mindmesh-ai/companion-hub/internal/transcript"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

// PersonalityHandler handles personality training endpoints.
type PersonalityHandler struct {
	service            *service.PersonalityService
	maxTranscriptBytes int64
	logger             *logger.Logger
}

// NewPersonalityHandler creates a new personality handler.
func NewPersonalityHandler(svc *service.PersonalityService, maxTranscriptBytes int64, log *logger.Logger) *PersonalityHandler {
	return &PersonalityHandler{
		service:            svc,
		maxTranscriptBytes: maxTranscriptBytes,
		logger:             log,
	}
}

// TrainRequest is the inline-text variant of a training request.
type TrainRequest struct {
	Transcript string `json:"transcript"`
}

// TrainResponse summarizes a freshly trained profile.
type TrainResponse struct {
	ProfileID    string `json:"profileId"`
	Name         string `json:"name"`
	MessageCount int    `json:"messageCount"`
	Patterns     int    `json:"patterns"`
	Phrases      int    `json:"phrases"`
	Topics       int    `json:"topics"`
}

// Train handles POST /api/v1/personality/train. Accepts either a
// multipart upload with a "transcript" file field or a JSON body with
// inline text.
func (h *PersonalityHandler) Train(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	raw, err := h.readTranscript(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := middleware.ValidateTranscript(raw, h.maxTranscriptBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Train(r.Context(), ownerID, raw)
	if err != nil {
		if errors.Is(err, transcript.ErrEmptyTranscript) {
			writeError(w, http.StatusBadRequest, "no messages could be parsed from the transcript")
			return
		}
		h.logger.Error("training failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "training failed")
		return
	}

	writeJSON(w, http.StatusCreated, trainResponse(profile))
}

// Get handles GET /api/v1/personality/{id}.
func (h *PersonalityHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	if err := middleware.ValidateProfileID(profileID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), profileID)
	if err != nil {
		switch {
		case errors.Is(err, natsclient.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		case errors.Is(err, service.ErrNotProfileOwner):
			writeError(w, http.StatusForbidden, "profile belongs to another user")
		default:
			h.logger.Error("profile fetch failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "profile fetch failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *PersonalityHandler) readTranscript(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxTranscriptBytes); err != nil {
			return "", errors.New("invalid multipart form")
		}
		file, _, err := r.FormFile("transcript")
		if err != nil {
			return "", errors.New("transcript file field is required")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxTranscriptBytes+1))
		if err != nil {
			return "", errors.New("failed to read transcript file")
		}
		return string(data), nil
	}

	var req TrainRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.maxTranscriptBytes+1)).Decode(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	return req.Transcript, nil
}

func trainResponse(profile *model.PersonalityProfile) TrainResponse {
	return TrainResponse{
		ProfileID:    profile.ID,
		Name:         profile.Name,
		MessageCount: profile.MessageCount,
		Patterns:     len(profile.ResponsePatterns),
		Phrases:      len(profile.CommonPhrases),
		Topics:       len(profile.Topics),
	}
}
