package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          *string   `db:"name" json:"name,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	ImageURL      *string   `db:"user_image_url" json:"user_image_url,omitempty"`
	PasswordHash  []byte    `db:"password_hash" json:"-"`
	PasswordSalt  []byte    `db:"password_salt" json:"-"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	PhoneVerified bool      `db:"phone_verified" json:"phone_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Verified reports whether the account finished both verification steps and
// may log in.
func (u *User) Verified() bool {
	return u.EmailVerified && u.PhoneVerified
}
