// Package user holds the principal model and its stores. A principal is the
// authenticated identity behind every protected request.
package user

import (
	"time"

	id "fabula/pkg/domain"
)

// User is a registered principal. PasswordHash and the OTP fields never
// leave the service layer; Resolve returns a projection with them cleared.
type User struct {
	ID       id.UserID `json:"id"`
	Name     string    `json:"name"`
	IsAdmin  bool      `json:"isAdmin"`
	Verified bool      `json:"verified"`

	PasswordHash string `json:"-"`

	// OTP is the one-time passcode issued during verification and password
	// reset flows, valid until OTPExpiresAt. Transient: cleared on use.
	OTP          string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sanitized returns a copy safe to attach to request contexts and responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.OTP = ""
	u.OTPExpiresAt = nil
	return u
}
