package auth

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and verifying tokens
)

// ErrInvalidToken is returned when a token cannot be verified or does not
// carry a usable subject.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  In production
// tokens come from the auth provider; this is used by the devtoken command
// and by tests to produce tokens the provider would issue.  The JWT
// includes subject (sub), role, expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role Role, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies an HS256 token with secret and returns the
// principal it describes.  Tokens without an "exp" claim are rejected.
// The role is read from the "role" claim, falling
// back to "app_metadata.role" as written by hosted auth providers.
func ParseAccessToken(secret, raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// reject anything that is not HMAC signed
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	uid, ok := subjectID(claims["sub"])
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if ParseRole(role) == "" {
		if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
			role, _ = meta["role"].(string)
		}
	}
	return Principal{UserID: uid, Role: ParseRole(role)}, nil
}

// subjectID accepts the numeric forms a "sub" claim may take once decoded
// from JSON.
func subjectID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		return n, err == nil && n > 0
	case float64:
		// float64(math.MaxUint64) rounds up to 2^64
		if t < 1 || t != math.Trunc(t) || t >= math.MaxUint64 {
			return 0, false
		}
		return uint64(t), true
	}
	return 0, false
}
