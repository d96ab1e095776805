package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the optional owner of one or more jobs. Email is unique when
// present; a submission without an email always creates a fresh row.
type User struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      *string   `db:"name"       json:"name,omitempty"`
	Email     *string   `db:"email"      json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
