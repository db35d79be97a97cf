package backend

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenPurpose = "vasop_access"
	defaultTokenTTL    = 7 * 24 * time.Hour
)

var (
	ErrAccessTokenMissing  = errors.New("missing access token")
	ErrAccessTokenInvalid  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("expired access token")
	ErrAccessTokenRevoked  = errors.New("access token no longer matches the account")
	ErrPasswordStateAbsent = errors.New("password state fingerprint is empty")
)

// AccessClaims binds a token to the account and to the password it was issued
// for, so a password reset revokes earlier tokens.
type AccessClaims struct {
	Purpose       string `json:"purpose"`
	PasswordState string `json:"password_state"`
	jwt.RegisteredClaims
}

func BuildAccessToken(secretKey []byte, accountPublicID string, passwordHash string, ttl time.Duration, now time.Time) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if now.IsZero() {
		now = time.Now()
	}

	passwordState := PasswordStateFingerprint(passwordHash)
	if passwordState == "" {
		return "", ErrPasswordStateAbsent
	}

	claims := AccessClaims{
		Purpose:       accessTokenPurpose,
		PasswordState: passwordState,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountPublicID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

func ParseAccessToken(secretKey []byte, rawToken string, now time.Time) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrAccessTokenMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, ErrAccessTokenInvalid
	}
	if !token.Valid || claims.Purpose != accessTokenPurpose || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrAccessTokenInvalid
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, ErrAccessTokenExpired
	}
	return claims, nil
}

func PasswordStateFingerprint(passwordHash string) string {
	normalizedHash := strings.TrimSpace(passwordHash)
	if normalizedHash == "" {
		return ""
	}

	sum := sha256.Sum256([]byte("vasop.access.password-state.v1:" + normalizedHash))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func passwordStateMatches(expected string, passwordHash string) bool {
	actual := PasswordStateFingerprint(passwordHash)
	if strings.TrimSpace(expected) == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
