package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

const (
	oldTokenKey = "0123456789abcdef"
	newTokenKey = "fedcba9876543210fedcba9876543210"
)

func TestIdentityKeyring_SealOpen(t *testing.T) {
	keys, err := newIdentityKeyring(oldTokenKey, nil)
	require.NoError(t, err)

	sealed, err := keys.seal("user-1", "1//refresh")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, tokenKeyID(oldTokenKey)+"."))
	require.NotContains(t, sealed, "1//refresh")
	require.False(t, keys.stale(sealed))

	plain, err := keys.open("user-1", sealed)
	require.NoError(t, err)
	require.Equal(t, "1//refresh", plain)

	_, err = keys.open("user-2", sealed)
	require.Error(t, err, "sealed token must not open for another account")

	empty, err := keys.seal("user-1", "")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestIdentityKeyring_Rotation(t *testing.T) {
	before, err := newIdentityKeyring(oldTokenKey, nil)
	require.NoError(t, err)
	sealed, err := before.seal("user-1", "1//refresh")
	require.NoError(t, err)

	after, err := newIdentityKeyring(newTokenKey, []string{oldTokenKey, " "})
	require.NoError(t, err)
	require.True(t, after.stale(sealed))
	plain, err := after.open("user-1", sealed)
	require.NoError(t, err)
	require.Equal(t, "1//refresh", plain)

	forgotten, err := newIdentityKeyring(newTokenKey, nil)
	require.NoError(t, err)
	_, err = forgotten.open("user-1", sealed)
	require.ErrorIs(t, err, errUnknownTokenKey)

	_, err = after.open("user-1", "no-key-id")
	require.ErrorIs(t, err, errMalformedSealed)
	_, err = after.open("user-1", tokenKeyID(newTokenKey)+".!!")
	require.ErrorIs(t, err, errMalformedSealed)
}

func TestIdentityKeyring_BadKeys(t *testing.T) {
	_, err := newIdentityKeyring("", nil)
	require.Error(t, err)
	_, err = newIdentityKeyring("short", nil)
	require.Error(t, err)
	_, err = newIdentityKeyring(oldTokenKey, []string{"also-short"})
	require.Error(t, err)
}

func TestGoogleCustomer_CreatesThenResealsAfterRotation(t *testing.T) {
	repo := newMemoryRepo()
	events := &recordingPublisher{}
	cfg := testConfig()
	cfg.Google.TokenEncryptionKey = oldTokenKey
	svc := NewService(cfg, repo, events, newTestLogger()).(*service)
	claims := googleClaims{Subject: "g-123", Email: "Owner@SolarShop.test", EmailVerified: true, Name: "Site Owner"}

	keys, err := svc.identityKeys()
	require.NoError(t, err)
	user, err := svc.googleCustomer(context.Background(), keys, claims, "1//first")
	require.NoError(t, err)
	require.Equal(t, "owner@solarshop.test", user.Email)
	require.Equal(t, RoleAdmin, user.Role)
	require.Equal(t, "Site Owner", user.DisplayName)
	require.Len(t, events.events, 1)

	stored, found, err := repo.GetIdentity(context.Background(), googleProviderName, "g-123")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, strings.HasPrefix(stored.RefreshToken, tokenKeyID(oldTokenKey)+"."))

	cfg.Google.TokenEncryptionKey = newTokenKey
	cfg.Google.RetiredTokenEncryptionKeys = []string{oldTokenKey}
	rotated := NewService(cfg, repo, events, newTestLogger()).(*service)
	keys, err = rotated.identityKeys()
	require.NoError(t, err)

	again, err := rotated.googleCustomer(context.Background(), keys, claims, "")
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
	require.Len(t, events.events, 1)

	stored, _, err = repo.GetIdentity(context.Background(), googleProviderName, "g-123")
	require.NoError(t, err)
	require.False(t, keys.stale(stored.RefreshToken))
	plain, err := keys.open(user.ID, stored.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "1//first", plain)
}

func TestGoogleCustomer_RefusesPasswordAccountEmail(t *testing.T) {
	repo := newMemoryRepo()
	cfg := testConfig()
	cfg.Google.TokenEncryptionKey = oldTokenKey
	svc := NewService(cfg, repo, nil, newTestLogger()).(*service)
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "asha@example.com", Password: "pass1234", DisplayName: "Asha"})
	require.NoError(t, err)

	keys, err := svc.identityKeys()
	require.NoError(t, err)
	_, err = svc.googleCustomer(context.Background(), keys, googleClaims{Subject: "g-9", Email: "asha@example.com", EmailVerified: true}, "")
	require.True(t, apperrors.IsCode(err, "account_linking_disabled"))
}

func TestService_GoogleNeedsTokenKey(t *testing.T) {
	cfg := testConfig()
	cfg.Google = GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}
	svc := NewService(cfg, newMemoryRepo(), nil, newTestLogger())

	_, err := svc.GoogleAuthURL(context.Background(), "state", "challenge")
	require.True(t, apperrors.IsCode(err, "auth_not_configured"))

	cfg.Google.TokenEncryptionKey = newTokenKey
	svc = NewService(cfg, newMemoryRepo(), nil, newTestLogger())
	target, err := svc.GoogleAuthURL(context.Background(), "state", "challenge")
	require.NoError(t, err)
	require.Contains(t, target, "code_challenge=challenge")
}
