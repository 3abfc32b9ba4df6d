package httpapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	token := tokenFor(t, s, userID, "ana@example.com", "USER")

	resp := doJSON(t, router, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusForbidden, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Nedovoljno dozvola", errBody.Message)
}

func TestDeactivatedAdminLosesAccess(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	adminID := createUser(t, s, "admin@biozen.rs", "admin-lozinka", "ADMIN", true)
	token := tokenFor(t, s, adminID, "admin@biozen.rs", "ADMIN")

	ok := doJSON(t, router, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, ok.Code)

	_, err := s.DB.Exec(`UPDATE users SET is_active = FALSE WHERE id = $1`, adminID)
	require.NoError(t, err)

	// The token is still valid, but the row is re-checked per request.
	denied := doJSON(t, router, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, denied.Code)
}

func TestAdminListUsersFilters(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	createUser(t, s, "ana@example.com", "l1", "USER", true)
	createUser(t, s, "mina@example.com", "l2", "USER", false)
	createUser(t, s, "petar@drugi.rs", "l3", "USER", true)

	all := doJSON(t, router, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, all.Code)
	var page AdminUserPageDTO
	decodeBody(t, all, &page)
	assert.Equal(t, int64(4), page.TotalElements)

	search := doJSON(t, router, http.MethodGet, "/api/admin/users?search=example.com", token, nil)
	require.Equal(t, http.StatusOK, search.Code)
	decodeBody(t, search, &page)
	assert.Equal(t, int64(2), page.TotalElements)

	inactive := doJSON(t, router, http.MethodGet, "/api/admin/users?status=inactive", token, nil)
	require.Equal(t, http.StatusOK, inactive.Code)
	decodeBody(t, inactive, &page)
	require.Equal(t, int64(1), page.TotalElements)
	assert.Equal(t, "mina@example.com", page.Users[0].Email)
}

func TestAdminListUsersIncludesCounts(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)
	userToken := tokenFor(t, s, userID, "ana@example.com", "USER")

	for _, date := range []string{"2026-08-01", "2026-08-08"} {
		resp := doJSON(t, router, http.MethodPost, "/api/measurements", userToken, map[string]interface{}{
			"date":   date,
			"weight": 84.0,
		})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	list := doJSON(t, router, http.MethodGet, "/api/admin/users?search=ana", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var page AdminUserPageDTO
	decodeBody(t, list, &page)
	require.Len(t, page.Users, 1)
	assert.Equal(t, int64(2), page.Users[0].MeasurementCount)
	assert.Equal(t, int64(0), page.Users[0].ChatMessageCount)
}

func TestAdminListUsersSurvivesCountFailure(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	createUser(t, s, "ana@example.com", "lozinka123", "USER", true)

	// An unavailable side table degrades that count to zero, it does not
	// take down the listing.
	_, err := s.DB.Exec(`DROP TABLE chat_messages`)
	require.NoError(t, err)

	resp := doJSON(t, router, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var page AdminUserPageDTO
	decodeBody(t, resp, &page)
	require.Equal(t, int64(2), page.TotalElements)
	for _, user := range page.Users {
		assert.Equal(t, int64(0), user.ChatMessageCount)
	}
}

func TestAdminUserStats(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	activeID := createUser(t, s, "ana@example.com", "l1", "USER", true)
	createUser(t, s, "mina@example.com", "l2", "USER", false)
	_, err := s.DB.Exec(`UPDATE users SET weight = $1 WHERE id = $2`, 80.0, activeID)
	require.NoError(t, err)

	resp := doJSON(t, router, http.MethodGet, "/api/admin/users/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats UserStatsDTO
	decodeBody(t, resp, &stats)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.InactiveUsers)
	assert.Equal(t, int64(3), stats.NewToday)
	require.NotNil(t, stats.AverageWeight)
	assert.InDelta(t, 80.0, *stats.AverageWeight, 0.0001)
}

func TestAdminUpdateUserRoleAndStatus(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)

	resp := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", userID), token, map[string]interface{}{
		"role":     "ADMIN",
		"isActive": false,
		"age":      34,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var body UserDTO
	decodeBody(t, resp, &body)
	assert.Equal(t, "ADMIN", body.Role)
	assert.False(t, body.IsActive)
	require.NotNil(t, body.Age)
	assert.Equal(t, 34, *body.Age)
}

func TestAdminUpdateUserRejectsUnknownRole(t *testing.T) {
	s := newTestServer(t)
	token := adminToken(t, s)
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)

	resp := doJSON(t, s.Router(), http.MethodPut, fmt.Sprintf("/api/admin/users/%d", userID), token, map[string]interface{}{
		"role": "SUPERADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminUpdateUserDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	token := adminToken(t, s)
	createUser(t, s, "ana@example.com", "l1", "USER", true)
	otherID := createUser(t, s, "mina@example.com", "l2", "USER", true)

	resp := doJSON(t, s.Router(), http.MethodPut, fmt.Sprintf("/api/admin/users/%d", otherID), token, map[string]interface{}{
		"email": "ANA@example.com",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Email već postoji", errBody.Message)
}

func TestAdminActivateDeactivate(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	userID := createUser(t, s, "ana@example.com", "lozinka123", "USER", true)

	resp := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/deactivate", userID), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var body UserDTO
	decodeBody(t, resp, &body)
	assert.False(t, body.IsActive)

	resp = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/activate", userID), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp, &body)
	assert.True(t, body.IsActive)
}

func TestAdminResetPasswordEndpoint(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	token := adminToken(t, s)
	userID := createUser(t, s, "ana@example.com", "stara-lozinka", "USER", true)

	short := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reset-password", userID), token, map[string]string{
		"newPassword": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, short.Code)

	resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reset-password", userID), token, map[string]string{
		"newPassword": "nova-lozinka",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	login := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "nova-lozinka",
	})
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestAdminGetUserNotFound(t *testing.T) {
	s := newTestServer(t)
	token := adminToken(t, s)
	resp := doJSON(t, s.Router(), http.MethodGet, "/api/admin/users/999999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminSystemSnapshot(t *testing.T) {
	s := newTestServer(t)
	token := adminToken(t, s)
	resp := doJSON(t, s.Router(), http.MethodGet, "/api/admin/system", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var snapshot map[string]interface{}
	decodeBody(t, resp, &snapshot)
	assert.Contains(t, snapshot, "capturedAt")
	assert.Contains(t, snapshot, "goroutines")
	capturedAt, err := time.Parse(time.RFC3339, snapshot["capturedAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), capturedAt, time.Minute)
}
