package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
	"github.com/akbasozcan3/isci-takip-app/internal/media"
	"github.com/akbasozcan3/isci-takip-app/internal/util"
)

type fakeUserRepo struct {
	createEmail  string
	createPhone  string
	createResult *domain.User
	createErr    error

	findByEmailInput  string
	findByEmailResult *domain.User
	findByEmailErr    error

	findByPhoneInput  string
	findByPhoneResult *domain.User
	findByPhoneErr    error

	findByIDResult *domain.User
	findByIDErr    error

	emailVerifiedIDs []uuid.UUID
	phoneVerifiedIDs []uuid.UUID

	updatePasswordInput struct {
		id   uuid.UUID
		hash []byte
		salt []byte
	}
	updatePasswordErr error

	updateImageInput  string
	updateImageResult *domain.User
	updateImageErr    error
}

func (f *fakeUserRepo) Create(ctx context.Context, email string, name *string, phone string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	f.createEmail = email
	f.createPhone = phone
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResult != nil {
		return f.createResult, nil
	}
	return &domain.User{ID: uuid.New(), Email: email, Name: name, Phone: &phone}, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.findByEmailInput = email
	if f.findByEmailErr != nil {
		return nil, f.findByEmailErr
	}
	if f.findByEmailResult == nil {
		return nil, sql.ErrNoRows
	}
	return f.findByEmailResult, nil
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	f.findByPhoneInput = phone
	if f.findByPhoneErr != nil {
		return nil, f.findByPhoneErr
	}
	if f.findByPhoneResult == nil {
		return nil, sql.ErrNoRows
	}
	return f.findByPhoneResult, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.findByIDErr != nil {
		return nil, f.findByIDErr
	}
	if f.findByIDResult == nil {
		return nil, sql.ErrNoRows
	}
	return f.findByIDResult, nil
}

func (f *fakeUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	f.emailVerifiedIDs = append(f.emailVerifiedIDs, id)
	return nil
}

func (f *fakeUserRepo) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	f.phoneVerifiedIDs = append(f.phoneVerifiedIDs, id)
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	f.updatePasswordInput = struct {
		id   uuid.UUID
		hash []byte
		salt []byte
	}{
		id:   id,
		hash: append([]byte(nil), passwordHash...),
		salt: append([]byte(nil), passwordSalt...),
	}
	return f.updatePasswordErr
}

func (f *fakeUserRepo) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) (*domain.User, error) {
	f.updateImageInput = imageURL
	if f.updateImageErr != nil {
		return nil, f.updateImageErr
	}
	if f.updateImageResult != nil {
		return f.updateImageResult, nil
	}
	return &domain.User{ID: id, ImageURL: &imageURL}, nil
}

type fakeSessionRepo struct {
	createdSessions []struct {
		userID    uuid.UUID
		token     string
		expiresAt time.Time
	}
	createErr error

	findActiveResult *domain.Session
	findActiveErr    error

	deactivatedToken string
	deactivateErr    error
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	f.createdSessions = append(f.createdSessions, struct {
		userID    uuid.UUID
		token     string
		expiresAt time.Time
	}{userID: userID, token: token, expiresAt: expiresAt})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Session{UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true}, nil
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, token string) error {
	f.deactivatedToken = token
	return f.deactivateErr
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	if f.findActiveErr != nil {
		return nil, f.findActiveErr
	}
	if f.findActiveResult == nil {
		return nil, sql.ErrNoRows
	}
	return f.findActiveResult, nil
}

type sentMail struct {
	email string
	code  string
	reset bool
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	f.sent = append(f.sent, sentMail{email: email, code: code})
	return f.err
}

func (f *fakeMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	f.sent = append(f.sent, sentMail{email: email, code: code, reset: true})
	return f.err
}

type fakeSMS struct {
	sent []sentMail
	err  error
}

func (f *fakeSMS) SendVerificationCode(ctx context.Context, phone, code string) error {
	f.sent = append(f.sent, sentMail{email: phone, code: code})
	return f.err
}

type fakeStorage struct {
	url       string
	err       error
	uploads   int
	objectKey string
	bucket    string
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploads++
	f.bucket = bucket
	f.objectKey = objectName
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://cdn.example.com/" + objectName, nil
}

type authFixture struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	codes    *fakeVerificationRepo
	mailer   *fakeMailer
	sms      *fakeSMS
	storage  *fakeStorage
	svc      *AuthService
	now      *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	codesRepo := newFakeVerificationRepo(clock)
	codeSvc := NewCodeService(codesRepo, 30*time.Minute, 15*time.Minute)
	codeSvc.now = clock

	f := &authFixture{
		users:    &fakeUserRepo{},
		sessions: &fakeSessionRepo{},
		codes:    codesRepo,
		mailer:   &fakeMailer{},
		sms:      &fakeSMS{},
		storage:  &fakeStorage{},
		now:      &now,
	}
	f.svc = NewAuthService(
		f.users, f.sessions, codeSvc, f.mailer, f.sms,
		util.NewJWTManager("test-secret", time.Hour),
		f.storage, nil,
		AuthServiceConfig{AvatarBucket: "avatars", DevReturnCode: true},
	)
	f.svc.now = clock
	return f
}

func verifiedUser(email, phone, password string) *domain.User {
	hash, salt, _ := util.DerivePassword(password)
	return &domain.User{
		ID:            uuid.New(),
		Email:         email,
		Phone:         &phone,
		PasswordHash:  hash,
		PasswordSalt:  salt,
		EmailVerified: true,
		PhoneVerified: true,
	}
}

func TestRegisterSuccessSendsBothCodes(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	user, err := f.svc.Register(ctx, RegisterInput{
		Email:    "Worker@Example.com",
		Password: "calisan123",
		Phone:    "0555 123 45 67",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "worker@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if f.users.createPhone != "+905551234567" {
		t.Fatalf("expected normalized phone, got %q", f.users.createPhone)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].reset {
		t.Fatalf("expected one verification email")
	}
	if len(f.sms.sent) != 1 {
		t.Fatalf("expected one verification SMS")
	}
	if f.codes.unconsumedCount(domain.PurposeEmailVerify, "worker@example.com") != 1 {
		t.Fatalf("expected live email code after registration")
	}
	if f.codes.unconsumedCount(domain.PurposePhoneVerify, "+905551234567") != 1 {
		t.Fatalf("expected live phone code after registration")
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()

	t.Run("email taken", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.findByEmailResult = &domain.User{ID: uuid.New()}
		_, err := f.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "calisan123", Phone: "05551234567"})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("phone taken", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.findByPhoneResult = &domain.User{ID: uuid.New()}
		_, err := f.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "calisan123", Phone: "05551234567"})
		if !errors.Is(err, ErrPhoneTaken) {
			t.Fatalf("expected ErrPhoneTaken, got %v", err)
		}
	})

	t.Run("invalid phone", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "calisan123", Phone: "12"})
		if !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("expected ErrInvalidPhone, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "short", Phone: "05551234567"})
		if !errors.Is(err, ErrPasswordTooWeak) {
			t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
		}
	})
}

func TestRegisterSurvivesDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")
	f.sms.err = errors.New("twilio down")

	if _, err := f.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "calisan123", Phone: "05551234567"}); err != nil {
		t.Fatalf("delivery failure must not fail registration, got %v", err)
	}
	if f.codes.unconsumedCount(domain.PurposeEmailVerify, "a@x.com") != 1 {
		t.Fatalf("expected code issuance to survive delivery failure")
	}
}

func TestLoginRequiresVerifiedAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	user := verifiedUser("a@x.com", "+905551234567", "calisan123")
	user.PhoneVerified = false
	f.users.findByEmailResult = user

	if _, err := f.svc.Login(ctx, "a@x.com", "calisan123"); !errors.Is(err, ErrAccountNotVerified) {
		t.Fatalf("expected ErrAccountNotVerified, got %v", err)
	}
}

func TestLoginSuccessCreatesSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.findByEmailResult = verifiedUser("a@x.com", "+905551234567", "calisan123")

	result, err := f.svc.Login(ctx, "a@x.com", "calisan123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected token")
	}
	if len(f.sessions.createdSessions) != 1 || f.sessions.createdSessions[0].token != result.Token {
		t.Fatalf("expected session row for issued token")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.findByEmailResult = verifiedUser("a@x.com", "+905551234567", "calisan123")

	if _, err := f.svc.Login(ctx, "a@x.com", "wrongpass9"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	f.users.findByEmailResult = nil
	if _, err := f.svc.Login(ctx, "missing@x.com", "calisan123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthenticateChecksSessionRow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := verifiedUser("a@x.com", "+905551234567", "calisan123")
	f.users.findByEmailResult = user
	f.users.findByIDResult = user

	result, err := f.svc.Login(ctx, "a@x.com", "calisan123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("active session resolves", func(t *testing.T) {
		f.sessions.findActiveResult = &domain.Session{Token: result.Token, UserID: user.ID, IsActive: true}
		got, err := f.svc.Authenticate(ctx, result.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Fatalf("expected user %s, got %s", user.ID, got.ID)
		}
	})

	t.Run("deactivated session rejected", func(t *testing.T) {
		f.sessions.findActiveResult = nil
		if _, err := f.svc.Authenticate(ctx, result.Token); !errors.Is(err, ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if _, err := f.svc.Authenticate(ctx, "not-a-jwt"); !errors.Is(err, ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})
}

func TestSendEmailCodeAntiEnumeration(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	devCode, err := f.svc.SendEmailCode(ctx, "ghost@x.com")
	if err != nil {
		t.Fatalf("unknown subject must not error, got %v", err)
	}
	if devCode != "" {
		t.Fatalf("unknown subject must not leak a code")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail should go out for unknown subject")
	}
}

func TestSendEmailCodeDevEchoOnDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.findByEmailResult = &domain.User{ID: uuid.New(), Email: "a@x.com"}
	f.mailer.err = errors.New("smtp down")

	devCode, err := f.svc.SendEmailCode(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devCode) != 6 {
		t.Fatalf("expected dev code echo when delivery fails, got %q", devCode)
	}
}

func TestVerifyEmailMarksUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &domain.User{ID: uuid.New(), Email: "a@x.com"}
	f.users.findByEmailResult = user

	f.mailer.err = errors.New("force echo")
	devCode, err := f.svc.SendEmailCode(ctx, "a@x.com")
	if err != nil || devCode == "" {
		t.Fatalf("setup: expected dev code, got %q err %v", devCode, err)
	}

	if err := f.svc.VerifyEmail(ctx, "a@x.com", devCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.users.emailVerifiedIDs) != 1 || f.users.emailVerifiedIDs[0] != user.ID {
		t.Fatalf("expected email_verified flag update")
	}

	t.Run("second verify fails", func(t *testing.T) {
		if err := f.svc.VerifyEmail(ctx, "a@x.com", devCode); !errors.Is(err, ErrCodeNotFound) {
			t.Fatalf("expected ErrCodeNotFound, got %v", err)
		}
	})
}

func TestVerifyPhoneNormalizesBeforeLookup(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	phone := "+905551234567"
	user := &domain.User{ID: uuid.New(), Email: "a@x.com", Phone: &phone}
	f.users.findByPhoneResult = user
	f.sms.err = errors.New("force echo")

	devCode, err := f.svc.SendPhoneCode(ctx, "0555 123 45 67")
	if err != nil || devCode == "" {
		t.Fatalf("setup: expected dev code, got %q err %v", devCode, err)
	}
	if f.users.findByPhoneInput != phone {
		t.Fatalf("expected lookup by normalized phone, got %q", f.users.findByPhoneInput)
	}

	if err := f.svc.VerifyPhone(ctx, "(0555) 123 45 67", devCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.users.phoneVerifiedIDs) != 1 {
		t.Fatalf("expected phone_verified flag update")
	}
}

func TestResetPasswordFlow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := verifiedUser("a@x.com", "+905551234567", "eskisifre1")
	f.users.findByEmailResult = user
	f.mailer.err = errors.New("force echo")

	devCode, err := f.svc.RequestPasswordReset(ctx, "a@x.com")
	if err != nil || devCode == "" {
		t.Fatalf("setup: expected dev code, got %q err %v", devCode, err)
	}
	if !f.mailer.sent[0].reset {
		t.Fatalf("expected reset mail, not verification mail")
	}

	t.Run("weak password leaves code alive", func(t *testing.T) {
		if err := f.svc.ResetPassword(ctx, "a@x.com", devCode, "weak"); !errors.Is(err, ErrPasswordTooWeak) {
			t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
		}
		if f.codes.unconsumedCount(domain.PurposePasswordReset, "a@x.com") != 1 {
			t.Fatalf("weak password attempt must not burn the code")
		}
	})

	if err := f.svc.ResetPassword(ctx, "a@x.com", devCode, "yenisifre1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.users.updatePasswordInput.hash) == 0 {
		t.Fatalf("expected password update")
	}

	t.Run("code cannot be replayed", func(t *testing.T) {
		if err := f.svc.ResetPassword(ctx, "a@x.com", devCode, "yenisifre2"); !errors.Is(err, ErrCodeNotFound) {
			t.Fatalf("expected ErrCodeNotFound on replay, got %v", err)
		}
	})
}

func TestResetSupersededCodeFails(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.findByEmailResult = verifiedUser("a@x.com", "+905551234567", "eskisifre1")
	f.mailer.err = errors.New("force echo")

	first, _ := f.svc.RequestPasswordReset(ctx, "a@x.com")
	second, _ := f.svc.RequestPasswordReset(ctx, "a@x.com")

	if err := f.svc.ResetPassword(ctx, "a@x.com", first, "yenisifre1"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected superseded code to fail, got %v", err)
	}
	if err := f.svc.ResetPassword(ctx, "a@x.com", second, "yenisifre1"); err != nil {
		t.Fatalf("expected latest code to succeed, got %v", err)
	}
}

func TestUpdateAvatarUploadsAndStoresURL(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	userID := uuid.New()
	f.storage.url = "https://cdn.example.com/avatars/me.jpg"

	user, err := f.svc.UpdateAvatar(ctx, userID, media.Upload{
		Reader:      strings.NewReader("fake-jpeg-bytes"),
		Size:        int64(len("fake-jpeg-bytes")),
		FileName:    "me.jpg",
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.storage.uploads != 1 || f.storage.bucket != "avatars" {
		t.Fatalf("expected one upload into the avatars bucket")
	}
	if !strings.HasPrefix(f.storage.objectKey, "avatars/"+userID.String()+"/") {
		t.Fatalf("unexpected object key %q", f.storage.objectKey)
	}
	if user.ImageURL == nil || *user.ImageURL != f.storage.url {
		t.Fatalf("expected image url persisted, got %v", user.ImageURL)
	}
}

func TestLogoutDeactivatesSession(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.Logout(context.Background(), "some-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sessions.deactivatedToken != "some-token" {
		t.Fatalf("expected session deactivation")
	}
}
