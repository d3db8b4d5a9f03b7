package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken reports a token whose signature or structure could not
// be verified.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies signed, time-bounded identity tokens.
// Tokens are HS256 JWTs carrying only subject, issued-at and expiry.
// The secret and TTL are read-only after construction, so a single
// instance is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue produces a signed token for the subject expiring after the
// configured TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ExtractSubject returns the subject embedded in the token after checking
// the signature. Expiry is not checked here; callers that care use Verify
// or IsExpired.
func (s *TokenService) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Verify reports whether the token's signature checks out, the token is
// unexpired, and its subject equals expectedSubject exactly. Comparison
// is case-sensitive.
func (s *TokenService) Verify(tokenString, expectedSubject string) bool {
	claims, err := s.parse(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

// IsExpired reports whether a correctly signed token has passed its
// expiry. Malformed or forged input is an error, so callers can tell
// "expired" apart from "unparseable".
func (s *TokenService) IsExpired(tokenString string) (bool, error) {
	claims, err := s.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return false, err
	}
	if claims.ExpiresAt == nil {
		return false, ErrInvalidToken
	}
	return claims.ExpiresAt.Before(time.Now()), nil
}

// IsValid is the total variant of verification: it returns false for any
// failure (expired, malformed, bad signature, empty input) and never
// returns an error.
func (s *TokenService) IsValid(tokenString string) bool {
	_, err := s.parse(tokenString)
	return err == nil
}

func (s *TokenService) parse(tokenString string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
