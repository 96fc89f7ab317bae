package utils

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	uppercase   = regexp.MustCompile(`[A-Z]`)
	lowercase   = regexp.MustCompile(`[a-z]`)
	digit       = regexp.MustCompile(`\d`)
	specialChar = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	usernameRe  = regexp.MustCompile(`^[a-z0-9._-]+$`)
)

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return errors.New("email is invalid")
	}
	// ParseAddress accepts "Name <a@b>"; only a bare address is allowed here.
	if addr.Address != strings.TrimSpace(email) {
		return errors.New("email is invalid")
	}
	return nil
}

func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if username != strings.ToLower(username) {
		return errors.New("username must be in lower case")
	}
	if utf8.RuneCountInString(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return fmt.Errorf("password must be at most 72 bytes long")
	}

	if !uppercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !lowercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digit.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialChar.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

// ValidateTitle checks a project name or task/subtask title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > 255 {
		return errors.New("title must be between 1 and 255 characters")
	}
	return nil
}
