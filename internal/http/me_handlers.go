package httpapi

import (
	"encoding/json"
	"net/http"

	"biozen-backend-go/internal/services"
)

type ProfileUpdateRequest struct {
	FirstName    *string  `json:"firstName"`
	LastName     *string  `json:"lastName"`
	Sex          *string  `json:"sex"`
	Age          *int     `json:"age"`
	Weight       *float64 `json:"weight"`
	TargetWeight *float64 `json:"targetWeight"`
	Waist        *float64 `json:"waist"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, "Korisnički nalog je deaktiviran")
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}

// UpdateMe patches only the fields present in the payload; absent fields keep
// their stored values.
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	user, err := services.LoadUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Korisnik nije pronađen")
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, "Korisnički nalog je deaktiviran")
		return
	}
	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
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
	_, err = s.DB.Exec(`
UPDATE users
SET first_name = $1,
    last_name = $2,
    sex = $3,
    age = $4,
    weight = $5,
    target_weight = $6,
    waist = $7
WHERE id = $8
`, user.FirstName, user.LastName, user.Sex, user.Age, user.Weight, user.TargetWeight, user.Waist, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}
