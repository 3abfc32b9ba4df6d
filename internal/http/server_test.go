package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"biozen-backend-go/internal/config"
)

const testSchema = `
CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NULL,
  last_name TEXT NULL,
  sex TEXT NULL,
  age INT NULL,
  weight DOUBLE PRECISION NULL,
  target_weight DOUBLE PRECISION NULL,
  waist DOUBLE PRECISION NULL,
  role TEXT NOT NULL DEFAULT 'USER',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMP NOT NULL,
  last_login_at TIMESTAMP NULL,
  login_count BIGINT NOT NULL DEFAULT 0,
  password_reset_token TEXT NULL UNIQUE,
  password_reset_expiry TIMESTAMP NULL
);
CREATE TABLE measurements (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id BIGINT NOT NULL,
  measured_on DATE NOT NULL,
  weight DOUBLE PRECISION NOT NULL,
  weight_delta DOUBLE PRECISION NULL,
  waist DOUBLE PRECISION NULL,
  waist_delta DOUBLE PRECISION NULL,
  comment TEXT NULL
);
CREATE TABLE blog_posts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  content TEXT NULL,
  excerpt TEXT NULL,
  featured_image TEXT NULL,
  author_id BIGINT NOT NULL,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  published_at TIMESTAMP NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NULL,
  view_count BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE chat_messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id BIGINT NOT NULL,
  role TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE todos (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  text TEXT NOT NULL,
  done BOOLEAN NOT NULL DEFAULT FALSE
);
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file:"+t.TempDir()+"/test.db")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	cfg := config.Config{
		Port:             "8080",
		JWTSecret:        "test-secret",
		JWTIssuer:        "biozen",
		AccessTTLSeconds: 3600,
		FrontendURL:      "https://dev.biozen.rs",
		MailFrom:         "no-reply@biozen.rs",
		MailFromName:     "BioZen Tracker",
		UploadDir:        t.TempDir(),
	}
	return NewServer(db, cfg)
}

func createUser(t *testing.T, s *Server, email, password, role string, active bool) int64 {
	t.Helper()
	hash, err := s.Tokens.HashPassword(password)
	require.NoError(t, err)
	var id int64
	err = s.DB.Get(&id, `
INSERT INTO users (email, password_hash, role, is_active, created_at, login_count)
VALUES ($1,$2,$3,$4,$5,0)
RETURNING id
`, email, hash, role, active, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func tokenFor(t *testing.T, s *Server, userID int64, email, role string) string {
	t.Helper()
	token, err := s.Tokens.CreateToken(userID, email, role)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
}
