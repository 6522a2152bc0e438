package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Token errors.
var (
	ErrTokenMalformed = errors.New("storage: malformed token")
	ErrTokenSignature = errors.New("storage: invalid token signature")
	ErrTokenExpired   = errors.New("storage: token expired")
)

// SignedURLSigner issues short-lived HMAC tokens naming a stored object.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner builds a signer; ttl defaults to 15 minutes.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for objectID valid for the signer TTL.
func (s *SignedURLSigner) Generate(objectID string) (string, time.Time, error) {
	if objectID == "" {
		return "", time.Time{}, errors.New("storage: object id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("storage: signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	id := base64.RawURLEncoding.EncodeToString([]byte(objectID))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return id + "." + exp + "." + s.sign(id, exp), expiresAt, nil
}

// Parse verifies token and returns the object id it names.
func (s *SignedURLSigner) Parse(token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, ErrTokenMalformed
	}
	id, exp, sig := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(sig), []byte(s.sign(id, exp))) {
		return "", time.Time{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrTokenMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", time.Time{}, ErrTokenMalformed
	}
	expiresAt := time.Unix(unix, 0).UTC()
	if s.now().After(expiresAt) {
		return "", expiresAt, ErrTokenExpired
	}
	return string(raw), expiresAt, nil
}

func (s *SignedURLSigner) sign(id, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	mac.Write([]byte{'|'})
	mac.Write([]byte(exp))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
