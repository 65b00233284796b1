package ports

import (
	"context"
	"time"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
)

// VerificationRepository persists issued codes. IssueCode must invalidate and
// insert atomically so concurrent issuance for the same subject cannot leave
// two live codes behind; Consume must set used_at with a compare-and-swap so
// concurrent verify calls yield exactly one winner.
type VerificationRepository interface {
	// IssueCode marks every unconsumed code for (purpose, subject) as used
	// and inserts the new code in the same transaction.
	IssueCode(ctx context.Context, purpose domain.Purpose, subject, code string, expiresAt time.Time) (*domain.VerificationCode, error)

	// FindLatestUnconsumed returns the most recently created unconsumed
	// record matching (purpose, subject, code), expired or not.
	FindLatestUnconsumed(ctx context.Context, purpose domain.Purpose, subject, code string) (*domain.VerificationCode, error)

	// Consume sets used_at on the record if it is still unconsumed and
	// reports whether this call was the one that consumed it.
	Consume(ctx context.Context, id int64) (bool, error)
}
