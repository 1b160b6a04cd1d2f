package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	signInCookieName = "solar_signin"
	signInTTL        = 5 * time.Minute
	signInAudience   = "google-signin"
)

// signInState travels through the consent screen in a signed cookie so the
// callback can check the state, finish PKCE and send the shopper back to the
// storefront page that started the sign-in.
type signInState struct {
	State        string `json:"st"`
	CodeVerifier string `json:"cv"`
	ReturnTo     string `json:"rt,omitempty"`
	jwt.RegisteredClaims
}

// storefrontPath accepts only same-origin absolute paths such as "/products/p1?bill=3000".
func storefrontPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return ""
	}
	return raw
}

func (h *Handler) setSignInCookie(c *gin.Context, st signInState) error {
	now := time.Now()
	st.RegisteredClaims = jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{signInAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(signInTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, st).SignedString(h.stateKey)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(signInCookieName, signed, int(signInTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	return nil
}

func clearSignInCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(signInCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

func (h *Handler) readSignInCookie(c *gin.Context) (signInState, error) {
	value, err := c.Cookie(signInCookieName)
	if err != nil || value == "" {
		return signInState{}, errors.New("sign-in cookie missing")
	}
	var st signInState
	_, err = jwt.ParseWithClaims(value, &st, func(*jwt.Token) (any, error) {
		return h.stateKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(signInAudience), jwt.WithExpirationRequired())
	if err != nil {
		return signInState{}, err
	}
	if st.State == "" || st.CodeVerifier == "" {
		return signInState{}, errors.New("sign-in cookie incomplete")
	}
	st.ReturnTo = storefrontPath(st.ReturnTo)
	return st, nil
}
