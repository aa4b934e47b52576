package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campuschat/internal/domain"
	"campuschat/internal/service"
)

type groupMessageResponse struct {
	*domain.GroupMessage
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

func handleListGroups(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		groups, err := groupSvc.ListForUser(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if groups == nil {
			groups = []*domain.Group{}
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

func handleGroupHistory(groupSvc *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		groupID := chi.URLParam(r, "groupID")

		msgs, err := groupSvc.History(r.Context(), groupID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		res := make([]groupMessageResponse, 0, len(msgs))
		for _, m := range msgs {
			var u *string
			if m.AttachmentFileID != nil {
				s := fmt.Sprintf("/api/files/%d", *m.AttachmentFileID)
				u = &s
			}
			res = append(res, groupMessageResponse{GroupMessage: m, AttachmentURL: u})
		}
		writeJSON(w, http.StatusOK, res)
	}
}
