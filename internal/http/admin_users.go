package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/models"
	"biozen-backend-go/internal/services"
)

type AdminUserDTO struct {
	UserDTO
	MeasurementCount int64 `json:"measurementCount"`
	ChatMessageCount int64 `json:"chatMessageCount"`
}

type AdminUserPageDTO struct {
	Users         []AdminUserDTO `json:"users"`
	TotalPages    int64          `json:"totalPages"`
	TotalElements int64          `json:"totalElements"`
	CurrentPage   int            `json:"currentPage"`
}

type AdminUserUpdateRequest struct {
	Email        *string  `json:"email"`
	FirstName    *string  `json:"firstName"`
	LastName     *string  `json:"lastName"`
	Sex          *string  `json:"sex"`
	Age          *int     `json:"age"`
	Weight       *float64 `json:"weight"`
	TargetWeight *float64 `json:"targetWeight"`
	Waist        *float64 `json:"waist"`
	Role         *string  `json:"role"`
	IsActive     *bool    `json:"isActive"`
}

type AdminResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type UserStatsDTO struct {
	TotalUsers    int64    `json:"totalUsers"`
	ActiveUsers   int64    `json:"activeUsers"`
	InactiveUsers int64    `json:"inactiveUsers"`
	NewToday      int64    `json:"newToday"`
	AverageWeight *float64 `json:"averageWeight,omitempty"`
}

func (s *Server) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))

	conditions := []string{}
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("lower(email) LIKE $%d", len(args)))
	}
	switch status {
	case "active":
		conditions = append(conditions, "is_active = TRUE")
	case "inactive":
		conditions = append(conditions, "is_active = FALSE")
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.DB.Get(&total, "SELECT COUNT(*) FROM users "+where, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	query := `
SELECT id, email, password_hash, first_name, last_name, sex, age, weight, target_weight, waist,
       role, is_active, created_at, last_login_at, login_count, password_reset_token, password_reset_expiry
FROM users
` + where + `
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d`
	args = append(args, size, page*size)
	query = fmt.Sprintf(query, len(args)-1, len(args))
	rows := []models.User{}
	if err := s.DB.Select(&rows, query, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	users := make([]AdminUserDTO, 0, len(rows))
	for i := range rows {
		var measurements int64
		var messages int64
		if err := s.DB.Get(&measurements, `SELECT COUNT(*) FROM measurements WHERE user_id = $1`, rows[i].ID); err != nil {
			log.Printf("count measurements for user %d: %v", rows[i].ID, err)
		}
		if err := s.DB.Get(&messages, `SELECT COUNT(*) FROM chat_messages WHERE user_id = $1`, rows[i].ID); err != nil {
			log.Printf("count chat messages for user %d: %v", rows[i].ID, err)
		}
		users = append(users, AdminUserDTO{
			UserDTO:          buildUserDTO(&rows[i]),
			MeasurementCount: measurements,
			ChatMessageCount: messages,
		})
	}
	WriteJSON(w, http.StatusOK, AdminUserPageDTO{
		Users:         users,
		TotalPages:    (total + int64(size) - 1) / int64(size),
		TotalElements: total,
		CurrentPage:   page,
	})
}

func (s *Server) AdminUserStats(w http.ResponseWriter, r *http.Request) {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	row := struct {
		Total     int64    `db:"total"`
		Active    int64    `db:"active"`
		NewToday  int64    `db:"new_today"`
		AvgWeight *float64 `db:"avg_weight"`
	}{}
	err := s.DB.Get(&row, `
SELECT COUNT(*) AS total,
       SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active,
       SUM(CASE WHEN created_at >= $1 THEN 1 ELSE 0 END) AS new_today,
       AVG(weight) AS avg_weight
FROM users
`, startOfDay)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, UserStatsDTO{
		TotalUsers:    row.Total,
		ActiveUsers:   row.Active,
		InactiveUsers: row.Total - row.Active,
		NewToday:      row.NewToday,
		AverageWeight: row.AvgWeight,
	})
}

func (s *Server) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}

func (s *Server) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	var req AdminUserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			WriteError(w, http.StatusBadRequest, "Email je obavezan")
			return
		}
		if email != strings.ToLower(user.Email) {
			var exists bool
			if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, email); err != nil {
				WriteError(w, http.StatusInternalServerError, "Interna greška servera")
				return
			}
			if exists {
				WriteError(w, http.StatusBadRequest, "Email već postoji")
				return
			}
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.Sex != nil {
		user.Sex = req.Sex
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Weight != nil {
		user.Weight = req.Weight
	}
	if req.TargetWeight != nil {
		user.TargetWeight = req.TargetWeight
	}
	if req.Waist != nil {
		user.Waist = req.Waist
	}
	if req.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*req.Role))
		if role != "USER" && role != "ADMIN" {
			WriteError(w, http.StatusBadRequest, "Neispravna uloga")
			return
		}
		user.Role = role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	_, err = s.DB.Exec(`
UPDATE users
SET email = $1, first_name = $2, last_name = $3, sex = $4, age = $5,
    weight = $6, target_weight = $7, waist = $8, role = $9, is_active = $10
WHERE id = $11
`, user.Email, user.FirstName, user.LastName, user.Sex, user.Age,
		user.Weight, user.TargetWeight, user.Waist, user.Role, user.IsActive, user.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}

func (s *Server) AdminActivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, true)
}

func (s *Server) AdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, false)
}

func (s *Server) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, err := parseUserID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	result, err := s.DB.Exec(`UPDATE users SET is_active = $1 WHERE id = $2`, active, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}

func (s *Server) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	var req AdminResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if len(req.NewPassword) < 6 {
		WriteError(w, http.StatusBadRequest, "Lozinka mora imati najmanje 6 karaktera")
		return
	}
	hash, err := s.Tokens.HashPassword(req.NewPassword)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	result, err := s.DB.Exec(`UPDATE users SET password_hash = $1, password_reset_token = NULL, password_reset_expiry = NULL WHERE id = $2`,
		hash, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Lozinka je uspešno promenjena"})
}

func parseUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
}
