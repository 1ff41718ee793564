// Package auth checks bearer tokens on API requests. In apikey mode the
// token is compared against a static key; in jwt mode it must be an HS256
// token signed with that key.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sshsshje/sshsshje/internal/errors"
)

// Modes.
const (
	ModeAPIKey = "apikey"
	ModeJWT    = "jwt"
)

// Subject is the sub claim of every token this package issues.
const Subject = "sshsshje"

// Messages returned to clients.
const (
	MsgKeyRequired = "API key required"
	MsgInvalidKey  = "Invalid API key"
)

// Authenticator validates Authorization headers.
type Authenticator struct {
	Enabled bool
	Mode    string
	Key     string

	now func() time.Time
}

// New creates an Authenticator. An empty mode means apikey.
func New(enabled bool, mode, key string) *Authenticator {
	if mode == "" {
		mode = ModeAPIKey
	}
	return &Authenticator{Enabled: enabled, Mode: mode, Key: key, now: time.Now}
}

// Check validates an Authorization header value. It always succeeds when
// auth is disabled. Failures are AUTH errors carrying MsgKeyRequired or
// MsgInvalidKey.
func (a *Authenticator) Check(header string) error {
	if !a.Enabled {
		return nil
	}

	token, ok := bearer(header)
	if !ok || a.Key == "" {
		return errors.New(errors.ErrAuth, MsgKeyRequired, "Send Authorization: Bearer <key>")
	}

	switch a.Mode {
	case ModeJWT:
		if err := a.verifyJWT(token); err != nil {
			return errors.WrapWithCode(err, errors.ErrAuth, MsgInvalidKey, "")
		}
		return nil
	default:
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.Key)) != 1 {
			return errors.New(errors.ErrAuth, MsgInvalidKey, "")
		}
		return nil
	}
}

// bearer extracts the credentials from "Bearer <token>".
func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (a *Authenticator) verifyJWT(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(a.Key), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(Subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func (a *Authenticator) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

// Issue mints an HS256 token valid for ttl, signed with the key.
func (a *Authenticator) Issue(ttl time.Duration) (string, time.Time, error) {
	if a.Key == "" {
		return "", time.Time{}, errors.New(errors.ErrConfig,
			"Cannot sign tokens without an API key",
			"Export API_KEY or set auth.api_key")
	}

	now := a.clock()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Key))
	if err != nil {
		return "", time.Time{}, errors.WrapWithCode(err, errors.ErrAuth, "Failed to sign token", "")
	}
	return signed, expires, nil
}
