package models

import "time"

const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)

// Student is the authenticated account. Staff accounts of the financial
// office share the collection with Role set to RoleStaff.
type Student struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Program      string    `bson:"program" json:"program"`
	Role         string    `bson:"role" json:"role"`
	TokenHash    string    `bson:"token_hash,omitempty" json:"-"`
	FCMToken     string    `bson:"fcm_token,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// StudentRegistration is the signup payload.
type StudentRegistration struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Program  string `json:"program" binding:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
