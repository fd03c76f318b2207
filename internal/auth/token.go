package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Subject distinguishes the two identity spaces that share one signing key.
type Subject string

const (
	SubjectUser  Subject = "user"
	SubjectAdmin Subject = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies a user or an admin.
type Claims struct {
	Kind Subject `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, userTTL, adminTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}
}

// GenerateToken signs a token for id in the given identity space.
func (m *TokenManager) GenerateToken(id uuid.UUID, kind Subject) (string, error) {
	ttl := m.userTTL
	if kind == SubjectAdmin {
		ttl = m.adminTTL
	}
	now := m.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Parse verifies signature, expiry and identity space and returns the subject id.
func (m *TokenManager) Parse(tokenString string, kind Subject) (uuid.UUID, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
