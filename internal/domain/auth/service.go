package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// Service exposes authentication and profile workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Profile(ctx context.Context, userID string) (UserView, error)
	Session(ctx context.Context, claims Claims) Session
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (UserView, error)
	AttachBill(ctx context.Context, userID, billURL string) (UserView, error)
	ListUsers(ctx context.Context, limit int) ([]UserView, error)
	RoleFor(email string) Role
	Logout(ctx context.Context, userID string) error
}

type service struct {
	cfg    Config
	repo   Repository
	events changefeed.Publisher
	logger *slog.Logger
	now    func() time.Time
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	maxDisplayNameRunes = 60
	maxAddressRunes     = 300
	defaultUserListSize = 50
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, events changefeed.Publisher, logger *slog.Logger) Service {
	admins := make([]string, 0, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	cfg.AdminEmails = admins
	return &service{
		cfg:    cfg,
		repo:   repo,
		events: events,
		logger: logger.With("component", "auth.service"),
		now:    time.Now,
	}
}

func (s *service) RoleFor(email string) Role {
	if slices.Contains(s.cfg.AdminEmails, strings.ToLower(strings.TrimSpace(email))) {
		return RoleAdmin
	}
	return RoleUser
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	name, err := normalizeDisplayName(req.DisplayName)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to check user", err)
	}
	if exists {
		return UserView{}, apperrors.Wrap("email_exists", "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, NewUser{
		Email:        email,
		DisplayName:  name,
		Role:         s.RoleFor(email),
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return UserView{}, apperrors.Wrap("email_exists", "email already registered", err)
		}
		return UserView{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionUsers, changefeed.KindCreated, user.ID)
	return toView(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.buildLoginResponse(ctx, user)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) Profile(ctx context.Context, userID string) (UserView, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return toView(user), nil
}

// Session resolves the stored profile behind verified claims.
func (s *service) Session(ctx context.Context, claims Claims) Session {
	session := PendingSession(claims)
	profile, err := s.Profile(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn("profile load failed, keeping provisional session", "userId", claims.UserID, "error", err)
		return session.Fail(err)
	}
	return session.Confirm(profile)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (UserView, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	if req.DisplayName != nil {
		name, err := normalizeDisplayName(*req.DisplayName)
		if err != nil {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
		user.DisplayName = name
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
		user.Phone = phone
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if len([]rune(address)) > maxAddressRunes {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "address is too long", nil)
		}
		user.Address = address
	}
	return s.save(ctx, user)
}

func (s *service) AttachBill(ctx context.Context, userID, billURL string) (UserView, error) {
	if strings.TrimSpace(billURL) == "" {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "bill url is required", nil)
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	at := s.now().UTC()
	user.LatestBillURL = billURL
	user.BillUpdatedAt = &at
	return s.save(ctx, user)
}

func (s *service) ListUsers(ctx context.Context, limit int) ([]UserView, error) {
	if limit <= 0 {
		limit = defaultUserListSize
	}
	users, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list users", err)
	}
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, toView(user))
	}
	return views, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.buildLoginResponse(ctx, user)
}

func (s *service) load(ctx context.Context, userID string) (User, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to load user", err)
	}
	if !found {
		return User{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return user, nil
}

func (s *service) save(ctx context.Context, user User) (UserView, error) {
	user.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserView{}, apperrors.Wrap("user_not_found", "user not found", err)
		}
		return UserView{}, apperrors.Wrap(apperrors.CodeStorage, "failed to update user", err)
	}
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionUsers, changefeed.KindUpdated, updated.ID)
	return toView(updated), nil
}

// syncRole rewrites the stored role when it disagrees with the allow-list.
// The stored value is informational; tokens always carry the allow-list role.
func (s *service) syncRole(ctx context.Context, user User) User {
	role := s.RoleFor(user.Email)
	if user.Role == role {
		return user
	}
	s.logger.Info("stored role differs from allow-list, rewriting", "userId", user.ID, "stored", user.Role, "resolved", role)
	user.Role = role
	if _, err := s.save(ctx, user); err != nil {
		s.logger.Warn("role sync failed", "userId", user.ID, "error", err)
	}
	return user
}

func (s *service) buildLoginResponse(ctx context.Context, user User) (LoginResponse, error) {
	user = s.syncRole(ctx, user)
	access, err := s.generateToken(user, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.generateToken(user, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		User:         toView(user),
	}, nil
}

func (s *service) generateToken(user User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(s.RoleFor(user.Email)),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(s.now()) {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token expired", nil)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token role invalid", err)
	}
	return Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      role,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func toView(user User) UserView {
	return UserView{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		Role:          user.Role,
		Phone:         user.Phone,
		Address:       user.Address,
		LatestBillURL: user.LatestBillURL,
		BillUpdatedAt: user.BillUpdatedAt,
		CreatedAt:     user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func normalizeDisplayName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", errors.New("display name cannot be empty")
	}
	if len([]rune(name)) > maxDisplayNameRunes {
		return "", fmt.Errorf("display name cannot exceed %d characters", maxDisplayNameRunes)
	}
	return name, nil
}

func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", nil
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == ' ', r == '-':
		default:
			return "", errors.New("phone may only contain digits, spaces, dashes and a leading +")
		}
	}
	if digits < 7 || digits > 15 {
		return "", errors.New("phone must have between 7 and 15 digits")
	}
	return phone, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
