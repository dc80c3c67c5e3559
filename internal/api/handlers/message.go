package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/pdfchat/internal/chat"
)

const maxMessageBody = 1 << 20

type Answerer interface {
	Answer(ctx context.Context, userID, fileID, question string) (*chat.AnswerResult, error)
}

type MessageHandler struct {
	answerer Answerer
	logger   *slog.Logger
}

func NewMessageHandler(a Answerer, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{answerer: a, logger: logger}
}

type sendMessageRequest struct {
	FileID  string `json:"fileId"`
	Message string `json:"message"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.answerer.Answer(r.Context(), uid, req.FileID, req.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, chat.ErrValidation):
		writeError(w, http.StatusBadRequest, "fileId and message are required")
	case errors.Is(err, chat.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, chat.ErrNotFound):
		writeError(w, http.StatusNotFound, "file not found")
	default:
		h.logger.Error("answer message", "file_id", req.FileID, "error", err)
		writeError(w, http.StatusInternalServerError, internalError)
	}
}
