package domain

import "time"

// Purpose selects which verification flow a code belongs to. Each purpose has
// its own TTL and its own partition of the verification_codes table.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePhoneVerify   Purpose = "phone_verify"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerify, PurposePhoneVerify, PurposePasswordReset:
		return true
	}
	return false
}

// VerificationCode is a single issued code. Subject is the email address or
// normalized phone number the code was issued for. UsedAt is set exactly once:
// either when the code is consumed or when a reissue invalidates it. Rows are
// never deleted; superseded and expired codes stay behind as an audit trail.
type VerificationCode struct {
	ID        int64      `db:"id" json:"id"`
	Purpose   Purpose    `db:"purpose" json:"purpose"`
	Subject   string     `db:"subject" json:"subject"`
	Code      string     `db:"code" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
