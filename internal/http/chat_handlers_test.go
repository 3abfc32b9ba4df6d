package httpapi

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biozen-backend-go/internal/services"
)

// fakeCompletions stands in for the OpenAI chat-completion endpoint.
func fakeCompletions(t *testing.T, s *Server, status int, body string) *int64 {
	t.Helper()
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)
	s.OpenAI = services.ChatService{APIKey: "sk-test", BaseURL: upstream.URL}
	return &hits
}

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Odgovor"},"finish_reason":"stop"}]}`

func TestChatPersistsBothSides(t *testing.T) {
	s := newTestServer(t)
	hits := fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "Koliko čaja dnevno?",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var body struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Odgovor", body.Message)
	assert.NotZero(t, body.ID)
	assert.Equal(t, int64(1), atomic.LoadInt64(hits))

	var roles []string
	require.NoError(t, s.DB.Select(&roles, `SELECT role FROM chat_messages WHERE user_id = $1 ORDER BY id ASC`, userID))
	assert.Equal(t, []string{"user", "assistant"}, roles)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t)
	hits := fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "   ",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Poruka ne može biti prazna", errBody.Message)
	assert.Zero(t, atomic.LoadInt64(hits))
}

func TestChatWindowedLimit(t *testing.T) {
	s := newTestServer(t)
	hits := fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	for i := 0; i < services.ChatRateLimitCount; i++ {
		resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
			"message": "Poruka",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "Jedna previše",
	})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Poslali ste previše poruka. Molimo sačekajte nekoliko minuta pre slanja nove poruke.", errBody.Message)
	// The rejected message never reaches the model and is not stored.
	assert.Equal(t, int64(services.ChatRateLimitCount), atomic.LoadInt64(hits))
	var stored int
	require.NoError(t, s.DB.Get(&stored, `SELECT COUNT(*) FROM chat_messages WHERE user_id = $1 AND role = 'user'`, userID))
	assert.Equal(t, services.ChatRateLimitCount, stored)
}

func TestChatLimitReleasesAfterWindow(t *testing.T) {
	s := newTestServer(t)
	fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	// A full batch of messages older than the window does not count.
	old := time.Now().UTC().Add(-time.Duration(services.ChatRateLimitMinutes+1) * time.Minute)
	for i := 0; i < services.ChatRateLimitCount; i++ {
		_, err := s.DB.Exec(`INSERT INTO chat_messages (user_id, role, message, created_at) VALUES ($1,'user',$2,$3)`,
			userID, "Stara poruka", old)
		require.NoError(t, err)
	}

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "Nova poruka",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Odgovor", body.Message)
}

func TestChatUpstreamRateLimitMapsTo429(t *testing.T) {
	s := newTestServer(t)
	fakeCompletions(t, s, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "Poruka",
	})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Contains(t, errBody.Message, "OpenAI API rate limit je prekoračen")
}

func TestChatUpstreamAuthFailureMapsTo500(t *testing.T) {
	s := newTestServer(t)
	fakeCompletions(t, s, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "Poruka",
	})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "OpenAI API ključ nije validan. Molimo kontaktirajte administratora.", errBody.Message)
}

func TestChatHistoryChronological(t *testing.T) {
	s := newTestServer(t)
	fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	for _, msg := range []string{"Prva", "Druga"} {
		resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{"message": msg})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := doJSON(t, router, http.MethodGet, "/api/chat/history", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var history []ChatMessageDTO
	decodeBody(t, resp, &history)
	require.Len(t, history, 4)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "Prva", history[0].Message)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "user", history[2].Role)
	assert.Equal(t, "Druga", history[2].Message)
	assert.Equal(t, "assistant", history[3].Role)
}

func TestChatDeactivatedUser(t *testing.T) {
	s := newTestServer(t)
	hits := fakeCompletions(t, s, http.StatusOK, completionBody)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", false)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]string{"message": "Poruka"})
	require.Equal(t, http.StatusNotFound, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Korisnik nije pronađen ili je deaktiviran", errBody.Message)
	assert.Zero(t, atomic.LoadInt64(hits))
}
