package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered business account.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	CompanyName   string    `json:"company_name"`
	CompanyNameEn string    `json:"company_name_en,omitempty"`
	CRNumber      string    `json:"cr_number,omitempty"`
	VATNumber     string    `json:"vat_number,omitempty"`
	UnifiedNumber string    `json:"unified_number,omitempty"`
	City          string    `json:"city,omitempty"`
	UserType      string    `json:"user_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the given plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
