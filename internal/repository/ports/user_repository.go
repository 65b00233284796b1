package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, email string, name *string, phone string, passwordHash, passwordSalt []byte) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) (*domain.User, error)
}
