package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	errUnknownTokenKey = errors.New("refresh token sealed with an unknown key")
	errMalformedSealed = errors.New("malformed sealed refresh token")
)

// identityKeyring seals provider refresh tokens stored on linked identities.
//
// Sealed values look like "<keyID>.<nonce|ciphertext>" where keyID is derived
// from the key itself. The current key seals; retired keys only open, so a key
// can be rotated without forcing customers to re-link Google.
// The owning user ID is bound as additional data.
type identityKeyring struct {
	current string
	aeads   map[string]cipher.AEAD
}

func newIdentityKeyring(current string, retired []string) (*identityKeyring, error) {
	kr := &identityKeyring{aeads: make(map[string]cipher.AEAD, len(retired)+1)}
	for i, key := range append([]string{current}, retired...) {
		key = strings.TrimSpace(key)
		if key == "" {
			if i == 0 {
				return nil, errors.New("token encryption key is missing")
			}
			continue
		}
		aead, err := newTokenAEAD(key)
		if err != nil {
			return nil, err
		}
		id := tokenKeyID(key)
		if i == 0 {
			kr.current = id
		}
		kr.aeads[id] = aead
	}
	return kr, nil
}

func (k *identityKeyring) seal(userID, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead := k.aeads[k.current]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(userID))
	return k.current + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (k *identityKeyring) open(userID, sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	id, body, ok := strings.Cut(sealed, ".")
	if !ok {
		return "", errMalformedSealed
	}
	aead, ok := k.aeads[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", errUnknownTokenKey, id)
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", errMalformedSealed
	}
	if len(payload) < aead.NonceSize() {
		return "", errMalformedSealed
	}
	nonce, ciphertext := payload[:aead.NonceSize()], payload[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(userID))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// stale reports whether a sealed value should be resealed under the current key.
func (k *identityKeyring) stale(sealed string) bool {
	if sealed == "" {
		return false
	}
	id, _, _ := strings.Cut(sealed, ".")
	return id != k.current
}

func tokenKeyID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

func newTokenAEAD(key string) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("token encryption key must be 16, 24, or 32 bytes")
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
