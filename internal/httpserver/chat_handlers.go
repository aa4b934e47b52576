package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campuschat/internal/domain"
	"campuschat/internal/service"
)

type chatCreateRequest struct {
	RecipientID string `json:"recipient_id"`
}

// messageResponse adds the download URL for attachments; the stored row
// only carries the file id.
type messageResponse struct {
	*domain.Message
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

func attachmentURL(fileID *int64) *string {
	if fileID == nil {
		return nil
	}
	u := fmt.Sprintf("/api/files/%d", *fileID)
	return &u
}

func toMessageResponses(msgs []*domain.Message) []messageResponse {
	res := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, messageResponse{
			Message:       m,
			AttachmentURL: attachmentURL(m.AttachmentFileID),
		})
	}
	return res
}

func handleCreateChat(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req chatCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		chat, isNew, err := chatSvc.Create(r.Context(), currentUser.ID, req.RecipientID)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if isNew {
			status = http.StatusCreated
		}
		writeJSON(w, status, chat)
	}
}

func handleListChats(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		chats, err := chatSvc.ListForUser(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if chats == nil {
			chats = []*domain.ChatSummary{}
		}
		writeJSON(w, http.StatusOK, chats)
	}
}

func handleChatHistory(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		chatID := chi.URLParam(r, "chatID")

		msgs, err := chatSvc.History(r.Context(), chatID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMessageResponses(msgs))
	}
}

func handleMarkChatRead(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		chatID := chi.URLParam(r, "chatID")

		if err := chatSvc.MarkRead(r.Context(), chatID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleUnreadSummary(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		counts, err := chatSvc.UnreadSummary(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"total":    total,
			"per_chat": counts,
		})
	}
}
