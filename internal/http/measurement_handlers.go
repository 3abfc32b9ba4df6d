package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/models"
	"biozen-backend-go/internal/services"
)

type MeasurementRequest struct {
	Date    *string  `json:"date"`
	Weight  *float64 `json:"weight"`
	Waist   *float64 `json:"waist"`
	Comment *string  `json:"comment"`
}

type MeasurementDTO struct {
	ID          int64    `json:"id"`
	Date        string   `json:"date"`
	Weight      float64  `json:"weight"`
	WeightDelta *float64 `json:"weightDelta,omitempty"`
	Waist       *float64 `json:"waist,omitempty"`
	WaistDelta  *float64 `json:"waistDelta,omitempty"`
	Comment     *string  `json:"comment,omitempty"`
}

func buildMeasurementDTO(m models.Measurement) MeasurementDTO {
	return MeasurementDTO{
		ID:          m.ID,
		Date:        m.MeasuredOn.Format("2006-01-02"),
		Weight:      m.Weight,
		WeightDelta: m.WeightDelta,
		Waist:       m.Waist,
		WaistDelta:  m.WaistDelta,
		Comment:     m.Comment,
	}
}

func (s *Server) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	if _, err := services.LoadActiveUser(s.DB, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	rows := []models.Measurement{}
	err := s.DB.Select(&rows, `
SELECT id, user_id, measured_on, weight, weight_delta, waist, waist_delta, comment
FROM measurements
WHERE user_id = $1
ORDER BY measured_on DESC, id DESC
`, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	items := make([]MeasurementDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, buildMeasurementDTO(row))
	}
	WriteJSON(w, http.StatusOK, items)
}

// CreateMeasurement snapshots deltas against the latest prior measurement at
// write time; they are never recomputed afterwards.
func (s *Server) CreateMeasurement(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	if _, err := services.LoadActiveUser(s.DB, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	var req MeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if req.Weight == nil || *req.Weight <= 0 {
		WriteError(w, http.StatusBadRequest, "Težina je obavezna")
		return
	}
	measuredOn := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.Date))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Neispravan format datuma")
			return
		}
		measuredOn = parsed
	}

	var previous models.Measurement
	hasPrevious := true
	err := s.DB.Get(&previous, `
SELECT id, user_id, measured_on, weight, weight_delta, waist, waist_delta, comment
FROM measurements
WHERE user_id = $1
ORDER BY measured_on DESC, id DESC
LIMIT 1
`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		hasPrevious = false
	} else if err != nil {
		// Deltas are written once and never recomputed; a failed lookup must
		// not masquerade as a first measurement.
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}

	var weightDelta *float64
	var waistDelta *float64
	if hasPrevious {
		delta := *req.Weight - previous.Weight
		weightDelta = &delta
		if req.Waist != nil && previous.Waist != nil {
			wd := *req.Waist - *previous.Waist
			waistDelta = &wd
		}
	}

	var id int64
	err = s.DB.Get(&id, `
INSERT INTO measurements (user_id, measured_on, weight, weight_delta, waist, waist_delta, comment)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, userID, measuredOn, *req.Weight, weightDelta, req.Waist, waistDelta, req.Comment)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, buildMeasurementDTO(models.Measurement{
		ID:          id,
		UserID:      userID,
		MeasuredOn:  measuredOn,
		Weight:      *req.Weight,
		WeightDelta: weightDelta,
		Waist:       req.Waist,
		WaistDelta:  waistDelta,
		Comment:     req.Comment,
	}))
}

func (s *Server) DeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	userID, _ := CurrentUserID(r)
	if _, err := services.LoadActiveUser(s.DB, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	measurementID, err := strconv.ParseInt(chi.URLParam(r, "measurementId"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Merenje nije pronađeno")
		return
	}
	// Someone else's measurement is indistinguishable from a missing one.
	result, err := s.DB.Exec(`DELETE FROM measurements WHERE id = $1 AND user_id = $2`, measurementID, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Merenje nije pronađeno")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Merenje je obrisano"})
}
