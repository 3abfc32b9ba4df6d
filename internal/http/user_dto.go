package httpapi

import (
	"time"

	"biozen-backend-go/internal/models"
)

type UserDTO struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FirstName    *string    `json:"firstName,omitempty"`
	LastName     *string    `json:"lastName,omitempty"`
	Sex          *string    `json:"sex,omitempty"`
	Age          *int       `json:"age,omitempty"`
	Weight       *float64   `json:"weight,omitempty"`
	TargetWeight *float64   `json:"targetWeight,omitempty"`
	Waist        *float64   `json:"waist,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	LoginCount   int64      `json:"loginCount"`
}

func buildUserDTO(user *models.User) UserDTO {
	role := user.Role
	if role == "" {
		role = "USER"
	}
	return UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Sex:          user.Sex,
		Age:          user.Age,
		Weight:       user.Weight,
		TargetWeight: user.TargetWeight,
		Waist:        user.Waist,
		Role:         role,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		LastLoginAt:  user.LastLoginAt,
		LoginCount:   user.LoginCount,
	}
}
