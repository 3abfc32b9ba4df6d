package services

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file:"+t.TempDir()+"/test.db")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
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
`)
	require.NoError(t, err)
	return db
}

func insertUser(t *testing.T, db *sqlx.DB, email, role string, active bool) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, `
INSERT INTO users (email, password_hash, role, is_active, created_at, login_count)
VALUES ($1,'x',$2,$3,$4,0)
RETURNING id
`, email, role, active, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func TestLoadActiveUser(t *testing.T) {
	db := testDB(t)
	activeID := insertUser(t, db, "ana@example.com", "USER", true)
	inactiveID := insertUser(t, db, "mina@example.com", "USER", false)

	user, err := LoadActiveUser(db, activeID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = LoadActiveUser(db, inactiveID)
	require.Error(t, err)
	serviceErr, ok := err.(ServiceError)
	require.True(t, ok)
	assert.Equal(t, 404, serviceErr.Status)

	_, err = LoadActiveUser(db, 9999)
	assert.Error(t, err)
}

func TestAuthorizeAdmin(t *testing.T) {
	db := testDB(t)
	adminID := insertUser(t, db, "admin@example.com", "ADMIN", true)
	userID := insertUser(t, db, "ana@example.com", "USER", true)
	frozenID := insertUser(t, db, "bivsi@example.com", "ADMIN", false)

	admin, err := AuthorizeAdmin(db, adminID)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", admin.Role)

	for _, id := range []int64{userID, frozenID, 9999} {
		_, err := AuthorizeAdmin(db, id)
		require.Error(t, err)
		serviceErr, ok := err.(ServiceError)
		require.True(t, ok)
		assert.Equal(t, 403, serviceErr.Status)
		assert.Equal(t, "Nedovoljno dozvola", serviceErr.Message)
	}
}

func TestAuthorizeAdminCaseInsensitiveRole(t *testing.T) {
	db := testDB(t)
	id := insertUser(t, db, "admin@example.com", "admin", true)
	_, err := AuthorizeAdmin(db, id)
	assert.NoError(t, err)
}

func TestRecordLogin(t *testing.T) {
	db := testDB(t)
	id := insertUser(t, db, "ana@example.com", "USER", true)
	require.NoError(t, RecordLogin(db, id))
	require.NoError(t, RecordLogin(db, id))

	user, err := LoadUser(db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.LoginCount)
	assert.NotNil(t, user.LastLoginAt)
}

func TestLoadUserByEmailCaseInsensitive(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "ana@example.com", "USER", true)
	user, err := LoadUserByEmail(db, "  ANA@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestResolvePostSlug(t *testing.T) {
	db := testDB(t)
	authorID := insertUser(t, db, "admin@example.com", "ADMIN", true)

	slug, err := ResolvePostSlug(db, "Zdrava ishrana", 0)
	require.NoError(t, err)
	assert.Equal(t, "zdrava-ishrana", slug)

	_, err = db.Exec(`INSERT INTO blog_posts (title, slug, author_id, created_at) VALUES ($1,$2,$3,$4)`,
		"Zdrava ishrana", slug, authorID, time.Now().UTC())
	require.NoError(t, err)

	second, err := ResolvePostSlug(db, "Zdrava ishrana", 0)
	require.NoError(t, err)
	assert.Equal(t, "zdrava-ishrana-2", second)
}

func TestResolvePostSlugExcludesOwnPost(t *testing.T) {
	db := testDB(t)
	authorID := insertUser(t, db, "admin@example.com", "ADMIN", true)
	var postID int64
	err := db.Get(&postID, `
INSERT INTO blog_posts (title, slug, author_id, created_at)
VALUES ('Zdrava ishrana','zdrava-ishrana',$1,$2)
RETURNING id
`, authorID, time.Now().UTC())
	require.NoError(t, err)

	slug, err := ResolvePostSlug(db, "Zdrava ishrana", postID)
	require.NoError(t, err)
	assert.Equal(t, "zdrava-ishrana", slug)
}

func TestResolvePostSlugEmptyTitle(t *testing.T) {
	db := testDB(t)
	slug, err := ResolvePostSlug(db, "???", 0)
	require.NoError(t, err)
	assert.Equal(t, "post", slug)
}
