package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/assistant"
	"fintrack/internal/session"
)

const maxChatLength = 1000

type chatRequest struct {
	Message string `json:"message"`
}

type historyResponse struct {
	Messages []session.Entry `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "chat", err)
		return
	}
	text := sanitizeInput(req.Message)
	if text == "" {
		fail(w, r, "chat", fmt.Errorf("%w: message is empty", errBadRequest))
		return
	}
	if len(text) > maxChatLength {
		fail(w, r, "chat", fmt.Errorf("%w: message longer than %d bytes", errBadRequest, maxChatLength))
		return
	}

	resp := s.deps.Chat.HandleQuery(r.Context(), sessionFrom(r.Context()).UserID, text)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs := s.deps.Chat.ChatHistory(sessionFrom(r.Context()).UserID)
	if msgs == nil {
		msgs = []session.Entry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: msgs})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	s.deps.Chat.ResetSession(sessionFrom(r.Context()).UserID)
	writeJSON(w, http.StatusOK, assistant.Response{
		Text:   assistant.MsgReset,
		Status: assistant.StatusOK,
	})
}
