package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/models"
)

type TodoRequest struct {
	Text *string `json:"text"`
	Done *bool   `json:"done"`
}

func (s *Server) ListTodos(w http.ResponseWriter, r *http.Request) {
	rows := []models.Todo{}
	if err := s.DB.Select(&rows, `SELECT id, text, done FROM todos ORDER BY id ASC`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

func (s *Server) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if req.Text == nil || strings.TrimSpace(*req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "Tekst je obavezan")
		return
	}
	done := false
	if req.Done != nil {
		done = *req.Done
	}
	var id int64
	err := s.DB.Get(&id, `INSERT INTO todos (text, done) VALUES ($1,$2) RETURNING id`, strings.TrimSpace(*req.Text), done)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, models.Todo{ID: id, Text: strings.TrimSpace(*req.Text), Done: done})
}

func (s *Server) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	todoID, err := strconv.ParseInt(chi.URLParam(r, "todoId"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Zadatak nije pronađen")
		return
	}
	var todo models.Todo
	if err := s.DB.Get(&todo, `SELECT id, text, done FROM todos WHERE id = $1`, todoID); err != nil {
		WriteError(w, http.StatusNotFound, "Zadatak nije pronađen")
		return
	}
	var req TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) != "" {
		todo.Text = strings.TrimSpace(*req.Text)
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}
	if _, err := s.DB.Exec(`UPDATE todos SET text = $1, done = $2 WHERE id = $3`, todo.Text, todo.Done, todo.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, todo)
}

func (s *Server) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	todoID, err := strconv.ParseInt(chi.URLParam(r, "todoId"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Zadatak nije pronađen")
		return
	}
	result, err := s.DB.Exec(`DELETE FROM todos WHERE id = $1`, todoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Zadatak nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Zadatak je obrisan"})
}
