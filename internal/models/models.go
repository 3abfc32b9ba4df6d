package models

import "time"

type User struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    *string    `db:"first_name"`
	LastName     *string    `db:"last_name"`
	Sex          *string    `db:"sex"`
	Age          *int       `db:"age"`
	Weight       *float64   `db:"weight"`
	TargetWeight *float64   `db:"target_weight"`
	Waist        *float64   `db:"waist"`
	Role         string     `db:"role"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	LoginCount   int64      `db:"login_count"`
	ResetToken   *string    `db:"password_reset_token"`
	ResetExpiry  *time.Time `db:"password_reset_expiry"`
}

type Measurement struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	MeasuredOn  time.Time `db:"measured_on"`
	Weight      float64   `db:"weight"`
	WeightDelta *float64  `db:"weight_delta"`
	Waist       *float64  `db:"waist"`
	WaistDelta  *float64  `db:"waist_delta"`
	Comment     *string   `db:"comment"`
}

type BlogPost struct {
	ID            int64      `db:"id"`
	Title         string     `db:"title"`
	Slug          string     `db:"slug"`
	Content       *string    `db:"content"`
	Excerpt       *string    `db:"excerpt"`
	FeaturedImage *string    `db:"featured_image"`
	AuthorID      int64      `db:"author_id"`
	Status        string     `db:"status"`
	PublishedAt   *time.Time `db:"published_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at"`
	ViewCount     int64      `db:"view_count"`
}

type ChatMessage struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

type Todo struct {
	ID   int64  `db:"id" json:"id"`
	Text string `db:"text" json:"text"`
	Done bool   `db:"done" json:"done"`
}
