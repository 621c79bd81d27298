package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies RS256 credentials.
type TokenManager struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenManager loads the key pair from PEM. With no private key an
// ephemeral one is generated, which invalidates tokens on restart.
func NewTokenManager(privPEM, pubPEM string, ttl time.Duration) (*TokenManager, error) {
	m := &TokenManager{ttl: ttl, now: time.Now}
	if strings.TrimSpace(privPEM) == "" {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		m.priv, m.pub = key, &key.PublicKey
		return m, nil
	}

	key, err := parsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	key.Precompute()
	m.priv, m.pub = key, &key.PublicKey

	if strings.TrimSpace(pubPEM) != "" {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pubPEM))
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		if !pub.Equal(m.pub) {
			return nil, errors.New("JWT_PUBLIC_PEM does not match JWT_PRIVATE_PEM")
		}
	}
	return m, nil
}

func parsePrivateKey(s string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, errors.New("private key: no PEM block")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(username string) (string, error) {
	now := m.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.priv)
}

// Verify returns the username carried by a valid token.
func (m *TokenManager) Verify(raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodRS256 {
			return nil, ErrInvalidToken
		}
		return m.pub, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	cl, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || cl.Username == "" {
		return "", ErrInvalidToken
	}
	return cl.Username, nil
}
