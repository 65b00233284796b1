package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepo(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, purpose, subject, code, expires_at, used_at, created_at`

// IssueCode invalidates all outstanding codes for (purpose, subject) and
// inserts the replacement in one transaction, so two concurrent issues can
// never leave more than one live code behind.
func (r *VerificationRepository) IssueCode(ctx context.Context, purpose domain.Purpose, subject, code string, expiresAt time.Time) (*domain.VerificationCode, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const invalidate = `
        UPDATE verification_codes
        SET used_at = NOW()
        WHERE purpose = $1 AND subject = $2 AND used_at IS NULL
    `
	if _, err := tx.ExecContext(ctx, invalidate, purpose, subject); err != nil {
		return nil, err
	}

	const insert = `
        INSERT INTO verification_codes (purpose, subject, code, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + verificationColumns + `
    `
	row := tx.QueryRowxContext(ctx, insert, purpose, subject, code, expiresAt)
	var record domain.VerificationCode
	if err := row.StructScan(&record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *VerificationRepository) FindLatestUnconsumed(ctx context.Context, purpose domain.Purpose, subject, code string) (*domain.VerificationCode, error) {
	const query = `
        SELECT ` + verificationColumns + `
        FROM verification_codes
        WHERE purpose = $1 AND subject = $2 AND code = $3 AND used_at IS NULL
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	var record domain.VerificationCode
	if err := r.db.GetContext(ctx, &record, query, purpose, subject, code); err != nil {
		return nil, err
	}
	return &record, nil
}

// Consume claims the record with a compare-and-swap on used_at IS NULL. Of
// any number of concurrent callers holding the same record, exactly one sees
// true.
func (r *VerificationRepository) Consume(ctx context.Context, id int64) (bool, error) {
	const query = `
        UPDATE verification_codes
        SET used_at = NOW()
        WHERE id = $1 AND used_at IS NULL
    `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
