package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"biozen-backend-go/internal/services"
)

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	Email string   `json:"email"`
	User  *UserDTO `json:"user,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Email i lozinka su obavezni")
		return
	}
	if len(req.Password) < 6 {
		WriteError(w, http.StatusBadRequest, "Lozinka mora imati najmanje 6 karaktera")
		return
	}
	var exists bool
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, email); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	if exists {
		WriteError(w, http.StatusBadRequest, "Email već postoji")
		return
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	now := time.Now().UTC()
	var userID int64
	err = s.DB.Get(&userID, `
INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, created_at, login_count)
VALUES ($1,$2,$3,$4,'USER',TRUE,$5,0)
RETURNING id
`, email, hash, req.FirstName, req.LastName, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	token, err := s.Tokens.CreateToken(userID, email, "USER")
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	if !s.Mail.SendWelcomeEmail(email) {
		log.Printf("welcome email not sent to %s", email)
	}
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteJSON(w, http.StatusOK, AuthResponse{Token: token, Email: email})
		return
	}
	dto := buildUserDTO(user)
	WriteJSON(w, http.StatusOK, AuthResponse{Token: token, Email: email, User: &dto})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusUnauthorized, "Neispravan email ili lozinka")
		return
	}
	user, err := services.LoadUserByEmail(s.DB, email)
	if err != nil {
		// Unknown email gets the same response as a bad password.
		WriteError(w, http.StatusUnauthorized, "Neispravan email ili lozinka")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Neispravan email ili lozinka")
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, "Korisnički nalog je deaktiviran")
		return
	}
	role := user.Role
	if role == "" {
		role = "USER"
	}
	token, err := s.Tokens.CreateToken(user.ID, user.Email, role)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	if err := services.RecordLogin(s.DB, user.ID); err != nil {
		log.Printf("record login for user %d: %v", user.ID, err)
	}
	user.LoginCount++
	dto := buildUserDTO(user)
	WriteJSON(w, http.StatusOK, AuthResponse{Token: token, Email: user.Email, User: &dto})
}

func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		WriteError(w, http.StatusBadRequest, "Email je obavezan")
		return
	}
	// The response never reveals whether the address is registered.
	response := map[string]string{"message": "Ako nalog postoji, poslali smo email sa uputstvima za resetovanje lozinke"}
	user, err := services.LoadUserByEmail(s.DB, email)
	if err != nil {
		WriteJSON(w, http.StatusOK, response)
		return
	}
	resetToken := uuid.NewString()
	expiry := time.Now().UTC().Add(time.Hour)
	_, err = s.DB.Exec(`UPDATE users SET password_reset_token = $1, password_reset_expiry = $2 WHERE id = $3`,
		resetToken, expiry, user.ID)
	if err != nil {
		log.Printf("store reset token for user %d: %v", user.ID, err)
		WriteJSON(w, http.StatusOK, response)
		return
	}
	resetURL := strings.TrimRight(s.Config.FrontendURL, "/") + "/reset-password?token=" + resetToken
	if !s.Mail.SendPasswordResetEmail(user.Email, resetURL) {
		log.Printf("password reset email not sent to %s", user.Email)
	}
	WriteJSON(w, http.StatusOK, response)
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		WriteError(w, http.StatusBadRequest, "Neispravan ili istekao token")
		return
	}
	if len(req.NewPassword) < 6 {
		WriteError(w, http.StatusBadRequest, "Lozinka mora imati najmanje 6 karaktera")
		return
	}
	row := struct {
		ID     int64      `db:"id"`
		Expiry *time.Time `db:"password_reset_expiry"`
	}{}
	err := s.DB.Get(&row, `SELECT id, password_reset_expiry FROM users WHERE password_reset_token = $1`, req.Token)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan ili istekao token")
		return
	}
	if row.Expiry == nil || row.Expiry.Before(time.Now().UTC()) {
		WriteError(w, http.StatusBadRequest, "Neispravan ili istekao token")
		return
	}
	hash, err := s.Tokens.HashPassword(req.NewPassword)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	// Single use: the token is consumed regardless of future attempts.
	_, err = s.DB.Exec(`UPDATE users SET password_hash = $1, password_reset_token = NULL, password_reset_expiry = NULL WHERE id = $2`,
		hash, row.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Lozinka je uspešno promenjena"})
}
