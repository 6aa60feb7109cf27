package adminapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "dts-ls-admin"

// Credentials is the single admin login this package guards access with.
// There is no user table: one bcrypt hash, checked against one submitted
// secret.
type Credentials struct {
	SecretHash []byte // bcrypt.GenerateFromPassword output
	JWTSecret  []byte
}

// HashSecret bcrypt-hashes an admin secret for storage in Credentials.
func HashSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

func (c Credentials) checkSecret(secret string) bool {
	return bcrypt.CompareHashAndPassword(c.SecretHash, []byte(secret)) == nil
}

func (c Credentials) signKey() []byte {
	var key []byte
	key = append(key, c.JWTSecret...)
	key = append(key, c.SecretHash...)
	return key
}

func (c Credentials) issueToken() (string, error) {
	claims := jwt.MapClaims{
		"iss":        issuer,
		"exp":        time.Now().Add(time.Hour).Unix(),
		"sub":        "admin",
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(c.signKey())
}

func (c Credentials) validateToken(tok string) error {
	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return c.signKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))
	return err
}

func bearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "bearer") {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	return strings.TrimSpace(parts[1]), nil
}
