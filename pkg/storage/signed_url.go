package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token validation failures.
var (
	ErrTokenInvalid = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadClaims is the content of a signed download token.
type DownloadClaims struct {
	Subject   string
	Key       string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC-signed download tokens for stored objects.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token granting access to key, bound to subject (the requesting user).
func (s *SignedURLSigner) Generate(subject, key string) (string, time.Time, error) {
	if subject == "" || key == "" {
		return "", time.Time{}, errors.New("subject and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedSubject := base64.RawURLEncoding.EncodeToString([]byte(subject))
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(encodedSubject, ts, encodedKey)
	return strings.Join([]string{encodedSubject, ts, encodedKey, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns its claims.
func (s *SignedURLSigner) Parse(token string) (DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadClaims{}, ErrTokenInvalid
	}
	encodedSubject, ts, encodedKey, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(encodedSubject, ts, encodedKey)), []byte(signature)) {
		return DownloadClaims{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return DownloadClaims{}, fmt.Errorf("%w: timestamp", ErrTokenInvalid)
	}
	subject, err := base64.RawURLEncoding.DecodeString(encodedSubject)
	if err != nil {
		return DownloadClaims{}, fmt.Errorf("%w: subject", ErrTokenInvalid)
	}
	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return DownloadClaims{}, fmt.Errorf("%w: key", ErrTokenInvalid)
	}

	claims := DownloadClaims{Subject: string(subject), Key: string(key), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(claims.ExpiresAt) {
		return DownloadClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
