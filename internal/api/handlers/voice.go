package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/numa-labs/numa/internal/api/middleware"
	"github.com/numa-labs/numa/internal/gcs"
	"github.com/numa-labs/numa/internal/voice"
)

// maxAudioBytes bounds utterance uploads; a voice note is seconds, not hours.
const maxAudioBytes = 10 << 20

// VoiceHandler handles utterance and chat endpoints.
type VoiceHandler struct {
	orchestrator *voice.Orchestrator
	archive      gcs.Archive
	log          zerolog.Logger
}

// NewVoiceHandler creates a new voice handler. archive may be nil when audio
// archival is not configured.
func NewVoiceHandler(o *voice.Orchestrator, archive gcs.Archive, log zerolog.Logger) *VoiceHandler {
	return &VoiceHandler{orchestrator: o, archive: archive, log: log}
}

// HandleVoice handles POST /api/voice with a multipart "audio" part.
func (h *VoiceHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read audio")
		return
	}
	if len(audio) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Audio file is empty")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	if h.archive != nil {
		if uri, err := h.archive.StoreAudio(ctx, userID, audio, mimeType); err != nil {
			h.log.Warn().Err(err).Msg("Failed to archive audio")
		} else {
			h.log.Debug().Str("uri", uri).Msg("Audio archived")
		}
	}

	reply, err := h.orchestrator.HandleUtterance(ctx, userID, audio, mimeType)
	if err != nil {
		if errors.Is(err, voice.ErrUnintelligibleAudio) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not understand audio")
			return
		}
		h.log.Error().Err(err).Msg("Utterance processing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process utterance")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// HandleChat handles POST /api/chat with a JSON body {"text": ...}.
func (h *VoiceHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	reply, err := h.orchestrator.HandleText(ctx, userID, req.Text)
	if err != nil {
		h.log.Error().Err(err).Msg("Text processing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}
