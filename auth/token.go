package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims are the fields the console reads from a backend-issued token.
// The backend has sent user_id and role_id both as numbers and as strings.
type Claims struct {
	UserID flexString `json:"user_id"`
	RoleID Role       `json:"role_id"`
	jwt.RegisteredClaims
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// TokenDecoder turns a bearer token into Claims. With no secret it only
// decodes the payload, the way the browser console did; with a secret it
// also verifies the HMAC signature.
type TokenDecoder struct {
	secretKey []byte
	now       func() time.Time
}

// NewTokenDecoder creates a decoder; an empty secret disables verification.
func NewTokenDecoder(secretKey string) *TokenDecoder {
	d := &TokenDecoder{now: time.Now}
	if secretKey != "" {
		d.secretKey = []byte(secretKey)
	}
	return d
}

// WithClock replaces the clock used for expiry checks.
func (d *TokenDecoder) WithClock(now func() time.Time) *TokenDecoder {
	d.now = now
	return d
}

// Verifies reports whether signatures are checked.
func (d *TokenDecoder) Verifies() bool {
	return d.secretKey != nil
}

// Decode rejects malformed tokens and tokens whose exp has passed.
func (d *TokenDecoder) Decode(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	if d.secretKey == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
			return nil, ErrTokenExpired
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return d.secretKey, nil
	}, jwt.WithTimeFunc(d.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractToken extracts the token from the Authorization header
// Expected format: "Bearer <token>"
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is empty")
	}

	// Check if it starts with "Bearer "
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}

func parseRoleText(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleNone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return RoleNone, fmt.Errorf("role_id %q is not numeric", s)
	}
	return Role(n), nil
}
