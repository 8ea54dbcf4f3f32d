package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Password   string             `json:"-" bson:"password"`
	Role       string             `json:"role" bson:"role"`
	BadgeID    string             `json:"badgeId,omitempty" bson:"badgeId,omitempty"`
	Department string             `json:"department,omitempty" bson:"department,omitempty"`
	IsActive   bool               `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

const (
	RoleUser      = "user"
	RoleResponder = "responder"
)

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterResponderRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	BadgeID    string `json:"badgeId" validate:"required"`
	Department string `json:"department" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
	User   *User  `json:"user"`
}
