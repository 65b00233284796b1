package service

import (
	"context"
	"errors"
	"time"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
	"github.com/akbasozcan3/isci-takip-app/internal/repository/ports"
	"github.com/akbasozcan3/isci-takip-app/internal/util"
)

var (
	// ErrCodeNotFound and ErrCodeExpired stay internal so handlers can log
	// which case occurred; the HTTP response collapses both into one
	// generic message.
	ErrCodeNotFound   = errors.New("verification code not found")
	ErrCodeExpired    = errors.New("verification code expired")
	ErrUnknownPurpose = errors.New("unknown verification purpose")
)

const codeDigits = 6

const (
	DefaultVerifyCodeTTL = 30 * time.Minute
	DefaultResetCodeTTL  = 15 * time.Minute
)

// CodeService issues and consumes verification codes. At most one unconsumed,
// unexpired code exists per (purpose, subject): issuing a replacement
// invalidates everything outstanding, and consumption is terminal.
type CodeService struct {
	codes     ports.VerificationRepository
	verifyTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewCodeService(codes ports.VerificationRepository, verifyTTL, resetTTL time.Duration) *CodeService {
	if verifyTTL <= 0 {
		verifyTTL = DefaultVerifyCodeTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetCodeTTL
	}
	return &CodeService{
		codes:     codes,
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

func (s *CodeService) ttl(purpose domain.Purpose) time.Duration {
	if purpose == domain.PurposePasswordReset {
		return s.resetTTL
	}
	return s.verifyTTL
}

// Issue creates a fresh 6-digit code for (purpose, subject), invalidating any
// outstanding codes, and returns the plaintext for out-of-band delivery.
// Delivery failure downstream does not undo issuance.
func (s *CodeService) Issue(ctx context.Context, purpose domain.Purpose, subject string) (string, error) {
	if !purpose.Valid() {
		return "", ErrUnknownPurpose
	}

	code, err := util.GenerateNumericOTP(codeDigits)
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.ttl(purpose))
	record, err := s.codes.IssueCode(ctx, purpose, subject, code, expiresAt)
	if err != nil {
		return "", err
	}
	return record.Code, nil
}

// Verify consumes the most recent live code for (purpose, subject) matching
// the supplied string exactly. An expired match fails without being consumed;
// it stays behind until a reissue supersedes it.
func (s *CodeService) Verify(ctx context.Context, purpose domain.Purpose, subject, code string) error {
	if !purpose.Valid() {
		return ErrUnknownPurpose
	}

	record, err := s.codes.FindLatestUnconsumed(ctx, purpose, subject, code)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}

	if record.ExpiresAt.Before(s.now()) {
		return ErrCodeExpired
	}

	consumed, err := s.codes.Consume(ctx, record.ID)
	if err != nil {
		return err
	}
	if !consumed {
		// A concurrent verify won the compare-and-swap.
		return ErrCodeNotFound
	}
	return nil
}
