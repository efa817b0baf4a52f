package domain

import "time"

type User struct {
	ID           string
	Email        string // stored lower-cased, unique
	Name         string
	PasswordHash string // argon2id PHC or bcrypt encoded

	// ResetTokenHash and ResetTokenExpiresAt are set together while a
	// password reset is pending and cleared together when it completes.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingReset reports whether the user holds a reset token that is still
// valid at now.
func (u User) PendingReset(now time.Time) bool {
	return u.ResetTokenHash != nil &&
		u.ResetTokenExpiresAt != nil &&
		now.Before(*u.ResetTokenExpiresAt)
}

// Profile is the public view of a user. It never carries the password hash
// or any reset state.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
