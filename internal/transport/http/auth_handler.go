package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akbasozcan3/isci-takip-app/internal/domain"
	"github.com/akbasozcan3/isci-takip-app/internal/media"
	"github.com/akbasozcan3/isci-takip-app/internal/ratelimit"
	"github.com/akbasozcan3/isci-takip-app/internal/service"
	"github.com/akbasozcan3/isci-takip-app/internal/util"
)

const maxAvatarBytes = 5 * 1024 * 1024

type AuthHandler struct {
	auth    *service.AuthService
	limiter ratelimit.Limiter
	limit   int
	window  time.Duration
}

func NewAuthHandler(auth *service.AuthService, limiter ratelimit.Limiter, limit int, window time.Duration) *AuthHandler {
	if limit <= 0 {
		limit = ratelimit.DefaultLimit
	}
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}
	return &AuthHandler{auth: auth, limiter: limiter, limit: limit, window: window}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout, RequireAuth(h.auth))
	auth.POST("/send-email-code", h.sendEmailCode)
	auth.POST("/send-phone-code", h.sendPhoneCode)
	auth.POST("/verify-email", h.verifyEmail)
	auth.POST("/verify-phone", h.verifyPhone)
	auth.POST("/forgot", h.forgotPassword)
	auth.POST("/reset", h.resetPassword)
	auth.GET("/me", h.me, RequireAuth(h.auth))

	users := v1.Group("/users", RequireAuth(h.auth))
	users.GET("/me", h.me)
	users.PUT("/me/avatar", h.updateAvatar)
}

// allow checks the per-operation sliding window. Denials never count toward
// the window, and a failing limiter backend lets the request through.
func (h *AuthHandler) allow(c echo.Context, operation, identity string) bool {
	if h.limiter == nil {
		return true
	}
	key := operation + ":" + strings.TrimSpace(strings.ToLower(identity))
	ok, err := h.limiter.Allow(c.Request().Context(), key, h.limit, h.window)
	if err != nil {
		c.Logger().Warnf("rate limiter: %v", err)
	}
	return ok
}

func tooManyRequests(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, util.Error("too many requests, try again later"))
}

// phoneKey returns the rate-limit identity for a phone input. Inputs that do
// not normalize keep their raw form so one caller's invalid attempts cannot
// drain a bucket shared with everyone else's.
func phoneKey(raw string) string {
	if normalized := util.NormalizePhone(raw); normalized != "" {
		return normalized
	}
	return strings.TrimSpace(raw)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "register", req.Email) || !h.allow(c, "register", phoneKey(req.Phone)) {
		return tooManyRequests(c)
	}

	user, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrPhoneTaken):
			return c.JSON(http.StatusConflict, util.Error(err.Error()))
		case errors.Is(err, service.ErrInvalidPhone), errors.Is(err, service.ErrPasswordTooWeak), errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}
		c.Logger().Errorf("register: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("registration failed"))
	}

	return c.JSON(http.StatusCreated, AuthUserResponse{User: toAuthUser(user)})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "login", req.Email) {
		return tooManyRequests(c)
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
		case errors.Is(err, service.ErrAccountNotVerified):
			return c.JSON(http.StatusForbidden, util.Error(err.Error()))
		}
		c.Logger().Errorf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("login failed"))
	}

	return c.JSON(http.StatusOK, AuthTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toAuthUser(result.User),
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	token, ok := CurrentToken(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		c.Logger().Errorf("logout: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("logout failed"))
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true})
}

func (h *AuthHandler) sendEmailCode(c echo.Context) error {
	var req SendEmailCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "send_email_code", req.Email) {
		return tooManyRequests(c)
	}

	devCode, err := h.auth.SendEmailCode(c.Request().Context(), req.Email)
	if err != nil {
		c.Logger().Errorf("send email code: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to send code"))
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true, DevCode: devCode})
}

func (h *AuthHandler) sendPhoneCode(c echo.Context) error {
	var req SendPhoneCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "send_phone_code", phoneKey(req.Phone)) {
		return tooManyRequests(c)
	}

	devCode, err := h.auth.SendPhoneCode(c.Request().Context(), req.Phone)
	if err != nil {
		c.Logger().Errorf("send phone code: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to send code"))
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true, DevCode: devCode})
}

func (h *AuthHandler) verifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "verify_email", req.Email) {
		return tooManyRequests(c)
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return h.codeError(c, "verify email", err)
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true})
}

func (h *AuthHandler) verifyPhone(c echo.Context) error {
	var req VerifyPhoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "verify_phone", phoneKey(req.Phone)) {
		return tooManyRequests(c)
	}

	if err := h.auth.VerifyPhone(c.Request().Context(), req.Phone, req.Code); err != nil {
		return h.codeError(c, "verify phone", err)
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true})
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "forgot", req.Email) {
		return tooManyRequests(c)
	}

	devCode, err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		c.Logger().Errorf("forgot password: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to send code"))
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true, DevCode: devCode})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req PasswordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if !h.allow(c, "reset", req.Email) {
		return tooManyRequests(c)
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrPasswordTooWeak) {
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}
		return h.codeError(c, "reset password", err)
	}
	return c.JSON(http.StatusOK, OkResponse{OK: true})
}

func (h *AuthHandler) me(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(user)})
}

func (h *AuthHandler) updateAvatar(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("avatar file is required"))
	}
	if fileHeader.Size > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error("avatar too large"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read avatar"))
	}
	defer src.Close()

	updated, err := h.auth.UpdateAvatar(c.Request().Context(), user.ID, media.Upload{
		Reader:      src,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, util.Error(err.Error()))
		}
		c.Logger().Errorf("update avatar: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to update avatar"))
	}

	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(updated)})
}

// codeError collapses all code verification failures into one generic answer
// so the response does not reveal whether a code ever existed.
func (h *AuthHandler) codeError(c echo.Context, op string, err error) error {
	if errors.Is(err, service.ErrCodeNotFound) || errors.Is(err, service.ErrCodeExpired) {
		return c.JSON(http.StatusBadRequest, util.Error("invalid or expired code"))
	}
	c.Logger().Errorf("%s: %v", op, err)
	return c.JSON(http.StatusInternalServerError, util.Error("verification failed"))
}

func toAuthUser(user *domain.User) AuthUser {
	return AuthUser{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		Phone:         user.Phone,
		ImageURL:      user.ImageURL,
		EmailVerified: user.EmailVerified,
		PhoneVerified: user.PhoneVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
