package models

import "time"

type User struct {
	ID                      string     `db:"id" json:"id"`
	Username                string     `db:"username" json:"username"`
	Email                   string     `db:"email" json:"email"`
	FullName                string     `db:"full_name" json:"fullName"`
	PasswordHash            string     `db:"password_hash" json:"-"`
	IsEmailVerified         bool       `db:"is_email_verified" json:"isEmailVerified"`
	EmailVerificationToken  string     `db:"email_verification_token" json:"-"`
	EmailVerificationExpiry *time.Time `db:"email_verification_expiry" json:"-"`
	ForgotPasswordToken     string     `db:"forgot_password_token" json:"-"`
	ForgotPasswordExpiry    *time.Time `db:"forgot_password_expiry" json:"-"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updatedAt"`
}

// PublicUser is the only view of a user that is embedded in project payloads.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// VerificationValid reports whether hashedToken matches an unexpired verification token.
func (u *User) VerificationValid(hashedToken string, now time.Time) bool {
	return u.EmailVerificationToken != "" &&
		u.EmailVerificationToken == hashedToken &&
		u.EmailVerificationExpiry != nil &&
		now.Before(*u.EmailVerificationExpiry)
}

// ResetValid reports whether hashedToken matches an unexpired password reset token.
func (u *User) ResetValid(hashedToken string, now time.Time) bool {
	return u.ForgotPasswordToken != "" &&
		u.ForgotPasswordToken == hashedToken &&
		u.ForgotPasswordExpiry != nil &&
		now.Before(*u.ForgotPasswordExpiry)
}
