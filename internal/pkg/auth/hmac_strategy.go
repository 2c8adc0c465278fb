package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid auth token")
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

const (
	tokenVersion = "v1"
	defaultTTL   = 24 * time.Hour
)

var encoding = base64.RawURLEncoding

// HMACStrategy signs "v1.<subject>.<expires>" payloads with HMAC-SHA256.
// Tokens look like <payload>.<signature>, both parts base64url encoded.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken generates a signed token for the subject.
func (s *HMACStrategy) IssueToken(subjectID int64) (string, error) {
	if subjectID <= 0 {
		return "", fmt.Errorf("issue token: subject id must be positive, got %d", subjectID)
	}
	expires := s.now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s.%d.%d", tokenVersion, subjectID, expires)
	return encoding.EncodeToString([]byte(payload)) + "." + encoding.EncodeToString(s.sign(payload)), nil
}

// ParseToken validates token and returns encoded subject id.
func (s *HMACStrategy) ParseToken(token string) (int64, error) {
	encodedPayload, encodedSig, ok := strings.Cut(token, ".")
	if !ok {
		return 0, ErrInvalidToken
	}
	rawPayload, err := encoding.DecodeString(encodedPayload)
	if err != nil {
		return 0, ErrInvalidToken
	}
	sig, err := encoding.DecodeString(encodedSig)
	if err != nil {
		return 0, ErrInvalidToken
	}

	payload := string(rawPayload)
	if !hmac.Equal(s.sign(payload), sig) {
		return 0, ErrInvalidToken
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 3 || parts[0] != tokenVersion {
		return 0, ErrInvalidToken
	}

	subjectID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || subjectID <= 0 {
		return 0, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !s.now().Before(time.Unix(expires, 0)) {
		return 0, ErrTokenExpired
	}

	return subjectID, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
