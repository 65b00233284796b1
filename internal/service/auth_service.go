package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
	"github.com/akbasozcan3/isci-takip-app/internal/media"
	"github.com/akbasozcan3/isci-takip-app/internal/repository/ports"
	"github.com/akbasozcan3/isci-takip-app/internal/util"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrPasswordTooWeak    = errors.New("password does not meet requirements")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotVerified = errors.New("account not verified")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
)

// Mailer delivers codes over email. Both methods are best-effort from the
// caller's point of view: a failure is reported but never rolls back issuance.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// SMSSender delivers codes over SMS.
type SMSSender interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	codes    *CodeService
	mailer   Mailer
	sms      SMSSender
	jwt      *util.JWTManager

	storage           ports.ObjectStorage
	imageProcessor    media.Processor
	avatarBucket      string
	imageMaxDimension int

	// devReturnCode echoes the plaintext code in the response when delivery
	// failed. Development convenience from the original deployment; off in
	// production.
	devReturnCode bool

	now func() time.Time
}

type AuthServiceConfig struct {
	AvatarBucket      string
	ImageMaxDimension int
	DevReturnCode     bool
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	codes *CodeService,
	mailer Mailer,
	sms SMSSender,
	jwtManager *util.JWTManager,
	storage ports.ObjectStorage,
	imageProcessor media.Processor,
	cfg AuthServiceConfig,
) *AuthService {
	if cfg.ImageMaxDimension <= 0 {
		cfg.ImageMaxDimension = 1024
	}
	return &AuthService{
		users:             users,
		sessions:          sessions,
		codes:             codes,
		mailer:            mailer,
		sms:               sms,
		jwt:               jwtManager,
		storage:           storage,
		imageProcessor:    imageProcessor,
		avatarBucket:      cfg.AvatarBucket,
		imageMaxDimension: cfg.ImageMaxDimension,
		devReturnCode:     cfg.DevReturnCode,
		now:               time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
	Phone    string
}

// Register creates the account and issues both verification codes. Code
// delivery is best-effort; the account exists either way and the user can ask
// for a resend.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}

	phone := util.NormalizePhone(in.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	if err := util.ValidatePassword(in.Password); err != nil {
		return nil, ErrPasswordTooWeak
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !isNotFound(err) {
		return nil, err
	}
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, salt, err := util.DerivePassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, email, in.Name, phone, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if code, issueErr := s.codes.Issue(ctx, domain.PurposeEmailVerify, user.Email); issueErr != nil {
		log.Printf("auth: issue email code for %s: %v", user.Email, issueErr)
	} else if s.mailer != nil {
		if sendErr := s.mailer.SendVerificationCode(ctx, user.Email, code); sendErr != nil {
			log.Printf("auth: send email code to %s: %v", user.Email, sendErr)
		}
	}
	if code, issueErr := s.codes.Issue(ctx, domain.PurposePhoneVerify, phone); issueErr != nil {
		log.Printf("auth: issue phone code for %s: %v", phone, issueErr)
	} else if s.sms != nil {
		if sendErr := s.sms.SendVerificationCode(ctx, phone, code); sendErr != nil {
			log.Printf("auth: send phone code to %s: %v", phone, sendErr)
		}
	}

	return user, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified() {
		return nil, ErrAccountNotVerified
	}

	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email, user.EmailVerified, user.PhoneVerified)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeactivateSession(ctx, token)
}

// Authenticate resolves a bearer token to its user: the JWT must parse and a
// matching active session row must still exist (logout kills the session even
// though the JWT itself stays valid until expiry).
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if _, err := s.sessions.FindActiveSession(ctx, token); err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return user, nil
}

// SendEmailCode reissues the email verification code. The returned dev code
// is non-empty only when delivery failed and dev echoing is enabled; an
// unknown address reports success with no code so callers cannot probe which
// emails exist.
func (s *AuthService) SendEmailCode(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}

	code, err := s.codes.Issue(ctx, domain.PurposeEmailVerify, email)
	if err != nil {
		return "", err
	}
	return s.deliverEmail(ctx, email, code, false), nil
}

func (s *AuthService) SendPhoneCode(ctx context.Context, phone string) (string, error) {
	normalized := util.NormalizePhone(phone)
	if normalized == "" {
		return "", nil
	}
	if _, err := s.users.FindByPhone(ctx, normalized); err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}

	code, err := s.codes.Issue(ctx, domain.PurposePhoneVerify, normalized)
	if err != nil {
		return "", err
	}

	var sendErr error
	if s.sms != nil {
		sendErr = s.sms.SendVerificationCode(ctx, normalized, code)
	} else {
		sendErr = errors.New("sms transport not configured")
	}
	if sendErr != nil {
		log.Printf("auth: send phone code to %s: %v", normalized, sendErr)
		if s.devReturnCode {
			return code, nil
		}
	}
	return "", nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}
	if err := s.codes.Verify(ctx, domain.PurposeEmailVerify, email, code); err != nil {
		return err
	}
	return s.users.MarkEmailVerified(ctx, user.ID)
}

func (s *AuthService) VerifyPhone(ctx context.Context, phone, code string) error {
	normalized := util.NormalizePhone(phone)
	if normalized == "" {
		return ErrCodeNotFound
	}
	user, err := s.users.FindByPhone(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}
	if err := s.codes.Verify(ctx, domain.PurposePhoneVerify, normalized, code); err != nil {
		return err
	}
	return s.users.MarkPhoneVerified(ctx, user.ID)
}

// RequestPasswordReset issues a reset code for a known address and reports
// success either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}

	code, err := s.codes.Issue(ctx, domain.PurposePasswordReset, email)
	if err != nil {
		return "", err
	}
	return s.deliverEmail(ctx, email, code, true), nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	// Weak passwords bail out before the code is consumed so the user can
	// retry with the same code.
	if err := util.ValidatePassword(newPassword); err != nil {
		return ErrPasswordTooWeak
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrCodeNotFound
		}
		return err
	}
	if err := s.codes.Verify(ctx, domain.PurposePasswordReset, email, code); err != nil {
		return err
	}

	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash, salt)
}

// UpdateAvatar processes the uploaded image and stores it in object storage,
// then writes the public URL to the user row.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload media.Upload) (*domain.User, error) {
	if s.storage == nil {
		return nil, errors.New("object storage not configured")
	}

	reader, size, contentType, err := prepareImageForUpload(ctx, s.imageProcessor, upload, s.imageMaxDimension)
	if err != nil {
		return nil, err
	}

	ext := imageExtension(contentType, upload.FileName)
	objectKey := fmt.Sprintf("avatars/%s/%s%s", userID.String(), s.now().UTC().Format("20060102T150405Z0700"), ext)

	url, err := s.storage.Upload(ctx, s.avatarBucket, objectKey, contentType, reader, size)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateImageURL(ctx, userID, url)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) deliverEmail(ctx context.Context, email, code string, reset bool) string {
	var sendErr error
	if s.mailer == nil {
		sendErr = errors.New("mail transport not configured")
	} else if reset {
		sendErr = s.mailer.SendPasswordResetCode(ctx, email, code)
	} else {
		sendErr = s.mailer.SendVerificationCode(ctx, email, code)
	}
	if sendErr != nil {
		log.Printf("auth: send code to %s: %v", email, sendErr)
		if s.devReturnCode {
			return code
		}
	}
	return ""
}

func imageExtension(contentType, fileName string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		return ext
	}
	return ".jpg"
}
