package auth

import (
	"fmt"
	"strings"
	"time"
)

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
	// AdminEmails is the only source of the admin role.
	AdminEmails []string
	Google      GoogleConfig
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID           string
	ClientSecret       string
	RedirectURL        string
	TokenEncryptionKey string
	// RetiredTokenEncryptionKeys still open stored tokens; sign-in reseals them under TokenEncryptionKey.
	RetiredTokenEncryptionKeys []string
	PostLoginRedirectURL       string
}

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole rejects anything outside the enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// User represents a persisted account.
type User struct {
	ID            string
	Email         string
	DisplayName   string
	Role          Role
	Phone         string
	Address       string
	LatestBillURL string
	BillUpdatedAt *time.Time
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
}

// Identity represents an external auth provider linkage.
type Identity struct {
	ID              int64
	UserID          string
	Provider        string
	ProviderSubject string
	ProviderEmail   string
	RefreshToken    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RegisterRequest captures the registration payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed token.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

// UserView trims sensitive fields.
type UserView struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	Role          Role       `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	LatestBillURL string     `json:"latestBillUrl,omitempty"`
	BillUpdatedAt *time.Time `json:"billUpdatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// UpdateProfileRequest patches contact details; nil fields are left alone.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    string
	Email     string
	Role      Role
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ProfileState tracks whether the stored profile behind a session has been loaded.
type ProfileState string

const (
	ProfilePending   ProfileState = "pending"
	ProfileConfirmed ProfileState = "confirmed"
	ProfileFailed    ProfileState = "failed"
)

// Session pairs the token claims with the stored profile.
// Pending sessions carry a provisional profile built from the claims alone.
type Session struct {
	State   ProfileState `json:"state"`
	Profile UserView     `json:"profile"`
	Error   string       `json:"error,omitempty"`
}

// PendingSession builds the provisional session from verified claims.
func PendingSession(claims Claims) Session {
	return Session{
		State: ProfilePending,
		Profile: UserView{
			ID:          claims.UserID,
			Email:       claims.Email,
			DisplayName: strings.Split(claims.Email, "@")[0],
			Role:        claims.Role,
		},
	}
}

// Confirm moves a pending session to confirmed. The role stays the one carried by the token.
func (s Session) Confirm(profile UserView) Session {
	if s.State != ProfilePending {
		return s
	}
	profile.Role = s.Profile.Role
	return Session{State: ProfileConfirmed, Profile: profile}
}

// Fail moves a pending session to failed, keeping the provisional profile.
func (s Session) Fail(err error) Session {
	if s.State != ProfilePending {
		return s
	}
	s.State = ProfileFailed
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
