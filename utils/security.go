package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	// TemporaryTokenTTL bounds email verification and password reset links.
	TemporaryTokenTTL = 20 * time.Minute
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func GenerateToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}

// HashToken returns the hex SHA-256 digest that is persisted in place of a one-time token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TemporaryToken is a one-time token: Plain goes into the email link, Hashed into storage.
type TemporaryToken struct {
	Plain     string
	Hashed    string
	ExpiresAt time.Time
}

func GenerateTemporaryToken(now time.Time) TemporaryToken {
	plain := GenerateToken(20)
	return TemporaryToken{
		Plain:     plain,
		Hashed:    HashToken(plain),
		ExpiresAt: now.Add(TemporaryTokenTTL),
	}
}
