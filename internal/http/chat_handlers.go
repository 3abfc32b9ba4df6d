package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"biozen-backend-go/internal/models"
	"biozen-backend-go/internal/services"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatMessageDTO struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	user, err := services.LoadActiveUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		WriteError(w, http.StatusBadRequest, "Poruka ne može biti prazna")
		return
	}

	// The quota lives in the store: one windowed count over the caller's own
	// messages, checked before the new one is persisted, so the message after
	// the limit is the first one rejected.
	windowStart := time.Now().UTC().Add(-time.Duration(services.ChatRateLimitMinutes) * time.Minute)
	var recent int
	err = s.DB.Get(&recent, `
SELECT COUNT(*) FROM chat_messages
WHERE user_id = $1 AND role = 'user' AND created_at >= $2
`, userID, windowStart)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	if recent >= services.ChatRateLimitCount {
		WriteError(w, http.StatusTooManyRequests, "Poslali ste previše poruka. Molimo sačekajte nekoliko minuta pre slanja nove poruke.")
		return
	}

	history := []models.ChatMessage{}
	err = s.DB.Select(&history, `
SELECT id, user_id, role, message, created_at
FROM chat_messages
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 10
`, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	// Newest-first from the store; the prompt wants chronological.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	now := time.Now().UTC()
	_, err = s.DB.Exec(`INSERT INTO chat_messages (user_id, role, message, created_at) VALUES ($1,'user',$2,$3)`,
		userID, message, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}

	reply, err := s.OpenAI.Complete(r.Context(), s.OpenAI.BuildContext(user, history, message))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	var replyID int64
	err = s.DB.Get(&replyID, `
INSERT INTO chat_messages (user_id, role, message, created_at)
VALUES ($1,'assistant',$2,$3)
RETURNING id
`, userID, reply, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"id": replyID, "message": reply})
}

func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	if _, err := services.LoadActiveUser(s.DB, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	rows := []models.ChatMessage{}
	err := s.DB.Select(&rows, `
SELECT id, user_id, role, message, created_at
FROM chat_messages
WHERE user_id = $1
ORDER BY created_at ASC, id ASC
`, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	items := make([]ChatMessageDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ChatMessageDTO{
			ID:        row.ID,
			Role:      row.Role,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, items)
}
