package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account on the export service. Role is "admin" or "editor";
// only admins manage the clip catalog.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
