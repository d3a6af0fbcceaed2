package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bizdesk/internal/model"
)

var errResetToken = errors.New("invalid reset token")

// ResetTokenGenerator issues one-shot password reset tokens. The signing key
// is bound to the user's password hash and last login, so a token stops
// verifying as soon as either changes.
type ResetTokenGenerator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokenGenerator creates a generator whose tokens expire after ttl.
func NewResetTokenGenerator(secret string, ttl time.Duration) *ResetTokenGenerator {
	return &ResetTokenGenerator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Make returns a reset token for user.
func (g *ResetTokenGenerator) Make(user *model.User) (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.keyFor(user))
}

// Check verifies token against the current state of user.
func (g *ResetTokenGenerator) Check(user *model.User, token string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return g.keyFor(user), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return errResetToken
	}
	if claims.Subject != strconv.FormatUint(uint64(user.ID), 10) {
		return errResetToken
	}
	return nil
}

func (g *ResetTokenGenerator) keyFor(user *model.User) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("password-reset"))
	mac.Write([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	mac.Write([]byte(user.PasswordHash))
	if user.LastLogin != nil {
		mac.Write([]byte(user.LastLogin.UTC().Format(time.RFC3339Nano)))
	}
	return mac.Sum(nil)
}

// EncodeUID renders a user id the way it appears in reset links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("zero uid")
	}
	return uint(id), nil
}
