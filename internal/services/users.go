package services

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"biozen-backend-go/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, sex, age, weight, target_weight, waist,
       role, is_active, created_at, last_login_at, login_count, password_reset_token, password_reset_expiry`

func LoadUser(db *sqlx.DB, userID int64) (*models.User, error) {
	var user models.User
	if err := db.Get(&user, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID); err != nil {
		return nil, err
	}
	return &user, nil
}

func LoadUserByEmail(db *sqlx.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Get(&user, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LoadActiveUser resolves the principal against current database state. A
// deactivated account fails here no matter how fresh its token is.
func LoadActiveUser(db *sqlx.DB, userID int64) (*models.User, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return nil, ErrNotFound("Korisnik nije pronađen ili je deaktiviran")
	}
	if !user.IsActive {
		return nil, ErrNotFound("Korisnik nije pronađen ili je deaktiviran")
	}
	return user, nil
}

// AuthorizeAdmin is the single load-and-authorize step shared by every
// admin-only handler: the row is re-read per request and must be both active
// and ADMIN (case-insensitive), so a deactivated admin's still-valid token is
// rejected immediately.
func AuthorizeAdmin(db *sqlx.DB, userID int64) (*models.User, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return nil, ErrForbidden("Nedovoljno dozvola")
	}
	if !user.IsActive || !strings.EqualFold(user.Role, "ADMIN") {
		return nil, ErrForbidden("Nedovoljno dozvola")
	}
	return user, nil
}

func RecordLogin(db *sqlx.DB, userID int64) error {
	_, err := db.Exec(`UPDATE users SET last_login_at = $1, login_count = login_count + 1 WHERE id = $2`,
		time.Now().UTC(), userID)
	return err
}
