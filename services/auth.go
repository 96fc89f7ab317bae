package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"projectcamp/auth"
	"projectcamp/mailer"
	"projectcamp/models"
	"projectcamp/store"
	"projectcamp/utils"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStore records issued refresh tokens by jti.
type SessionStore interface {
	StoreSession(ctx context.Context, session models.Session, ttl time.Duration) error
	GetSession(ctx context.Context, tokenID string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenID string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
}

type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	User   *models.User
	Tokens auth.TokenPair
}

type AuthService struct {
	store    store.Store
	sessions SessionStore
	tokens   *auth.TokenIssuer
	mail     mailer.Mailer
	baseURL  string
	now      func() time.Time
}

func NewAuthService(st store.Store, sessions SessionStore, tokens *auth.TokenIssuer, mail mailer.Mailer, baseURL string) *AuthService {
	return &AuthService{
		store:    st,
		sessions: sessions,
		tokens:   tokens,
		mail:     mail,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

func (s *AuthService) sendMail(ctx context.Context, msg mailer.Message) {
	if err := s.mail.Send(ctx, msg); err != nil {
		slog.Warn("Email service failed", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
	}
}

func (s *AuthService) verificationURL(token string) string {
	return s.baseURL + "/api/v1/auth/verify-email/" + token
}

func (s *AuthService) resetURL(token string) string {
	return s.baseURL + "/reset-password/" + token
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	var problems []string
	for _, err := range []error{
		utils.ValidateEmail(email),
		utils.ValidateUsername(username),
		utils.ValidatePassword(in.Password),
	} {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, models.InvalidArgument("Received data is not valid", problems...)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, models.Conflict("User with email or username already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, models.Conflict("User with email or username already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	token := utils.GenerateTemporaryToken(now)
	user := &models.User{
		ID:                      uuid.NewString(),
		Username:                username,
		Email:                   email,
		FullName:                strings.TrimSpace(in.FullName),
		PasswordHash:            hash,
		EmailVerificationToken:  token.Hashed,
		EmailVerificationExpiry: &token.ExpiresAt,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, models.Conflict("User with email or username already exists")
		}
		return nil, err
	}

	s.sendMail(ctx, mailer.VerificationEmail(user.Username, user.Email, s.verificationURL(token.Plain)))
	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" && username == "" {
		return nil, models.InvalidArgument("Username or email is required")
	}
	if in.Password == "" {
		return nil, models.InvalidArgument("Password is required")
	}

	var (
		user *models.User
		err  error
	)
	if email != "" {
		user, err = s.store.GetUserByEmail(ctx, email)
	} else {
		user, err = s.store.GetUserByUsername(ctx, username)
	}
	invalid := models.Unauthenticated("Invalid user credentials")
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, invalid
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta ClientMeta) (auth.TokenPair, error) {
	pair, err := s.tokens.GenerateTokens(user.ID, user.Email, user.Username)
	if err != nil {
		return auth.TokenPair{}, err
	}
	session := models.Session{
		TokenID:   pair.RefreshTokenID,
		UserID:    user.ID,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		ExpiresAt: pair.RefreshExpires.UTC().Format(time.RFC3339),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.sessions.StoreSession(ctx, session, s.tokens.RefreshTokenExpiry); err != nil {
		return auth.TokenPair{}, fmt.Errorf("storing session: %w", err)
	}
	return pair, nil
}

// Logout revokes the presented refresh session, if any, and every other
// session of the user.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken != "" {
		if claims, err := s.tokens.VerifyRefreshToken(refreshToken); err == nil && claims.Subject == userID {
			if err := s.sessions.DeleteSession(ctx, claims.ID); err != nil && !errors.Is(err, utils.ErrSessionNotFound) {
				return err
			}
		}
	}
	return s.sessions.DeleteAllUserSessions(ctx, userID)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, msgUserNotFound)
	}
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return models.InvalidArgument("Email verification token is missing")
	}
	invalid := models.InvalidArgument("Token is invalid or expired")

	hashed := utils.HashToken(token)
	user, err := s.store.GetUserByVerificationToken(ctx, hashed)
	if errors.Is(err, store.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if !user.VerificationValid(hashed, s.now()) {
		return invalid
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = nil
	return translate(s.store.UpdateUser(ctx, user), msgUserNotFound)
}

func (s *AuthService) ResendEmailVerification(ctx context.Context, userID string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return translate(err, "User does not exist")
	}
	if user.IsEmailVerified {
		return models.Conflict("Email is already verified")
	}

	token := utils.GenerateTemporaryToken(s.now())
	user.EmailVerificationToken = token.Hashed
	user.EmailVerificationExpiry = &token.ExpiresAt
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return translate(err, "User does not exist")
	}

	s.sendMail(ctx, mailer.VerificationEmail(user.Username, user.Email, s.verificationURL(token.Plain)))
	return nil
}

// Refresh exchanges a live refresh token for a new pair. The old session is
// revoked, so each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, models.Unauthenticated("Unauthorized access")
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, models.Unauthenticated("Invalid refresh token")
	}

	expired := models.Unauthenticated("Refresh token is expired or used")
	session, err := s.sessions.GetSession(ctx, claims.ID)
	if errors.Is(err, utils.ErrSessionNotFound) {
		return nil, expired
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, expired
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.Unauthenticated("Invalid refresh token")
	}
	if err != nil {
		return nil, err
	}

	// A concurrent refresh that already consumed the session wins.
	if err := s.sessions.DeleteSession(ctx, claims.ID); err != nil {
		if errors.Is(err, utils.ErrSessionNotFound) {
			return nil, expired
		}
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// ForgotPassword never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.ValidateEmail(email); err != nil {
		return models.InvalidArgument("Received data is not valid", err.Error())
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := utils.GenerateTemporaryToken(s.now())
	user.ForgotPasswordToken = token.Hashed
	user.ForgotPasswordExpiry = &token.ExpiresAt
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.sendMail(ctx, mailer.PasswordResetEmail(user.Username, user.Email, s.resetURL(token.Plain)))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := utils.ValidatePassword(newPassword); err != nil {
		return models.InvalidArgument("Received data is not valid", err.Error())
	}
	invalid := models.InvalidArgument("Token is invalid or expired")
	if token == "" {
		return invalid
	}

	hashed := utils.HashToken(token)
	user, err := s.store.GetUserByResetToken(ctx, hashed)
	if errors.Is(err, store.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if !user.ResetValid(hashed, s.now()) {
		return invalid
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash
	user.ForgotPasswordToken = ""
	user.ForgotPasswordExpiry = nil
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return translate(err, msgUserNotFound)
	}
	return s.sessions.DeleteAllUserSessions(ctx, user.ID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return models.InvalidArgument("Received data is not valid", "old password is required")
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return models.InvalidArgument("Received data is not valid", err.Error())
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return translate(err, msgUserNotFound)
	}
	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return models.InvalidArgument("Invalid old password")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return translate(err, msgUserNotFound)
	}
	return s.sessions.DeleteAllUserSessions(ctx, user.ID)
}
