package api

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealedCookieVersion = "v2"
	sealedCookieInfo    = "vasop sealed cookie"
)

var errInvalidSealedCookie = errors.New("invalid sealed cookie value")

// cookieSealer encrypts JSON values into cookie-safe strings. The purpose is
// bound as associated data, so a value sealed for one cookie never opens as
// another.
type cookieSealer struct {
	aead cipher.AEAD
}

func newCookieSealer(secretKey []byte) (*cookieSealer, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("cookie secret key is required")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secretKey, nil, []byte(sealedCookieInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cookie aead: %w", err)
	}
	return &cookieSealer{aead: aead}, nil
}

func (sealer *cookieSealer) sealJSON(purpose string, value any) (string, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return "", errors.New("cookie purpose is required")
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode %s cookie: %w", purpose, err)
	}

	nonce := make([]byte, sealer.aead.NonceSize(), sealer.aead.NonceSize()+len(plaintext)+sealer.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cookie nonce: %w", err)
	}
	sealed := sealer.aead.Seal(nonce, nonce, plaintext, []byte(purpose))
	return sealedCookieVersion + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (sealer *cookieSealer) openJSON(purpose string, raw string, target any) error {
	purpose = strings.TrimSpace(purpose)
	version, encoded, found := strings.Cut(strings.TrimSpace(raw), ".")
	if purpose == "" || !found || version != sealedCookieVersion || encoded == "" {
		return errInvalidSealedCookie
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(sealed) <= sealer.aead.NonceSize() {
		return errInvalidSealedCookie
	}

	nonceSize := sealer.aead.NonceSize()
	plaintext, err := sealer.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(purpose))
	if err != nil {
		return errInvalidSealedCookie
	}
	if err := json.Unmarshal(plaintext, target); err != nil {
		return errInvalidSealedCookie
	}
	return nil
}
