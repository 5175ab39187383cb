//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Role is a named authorization role; users hold zero or more.
type Role struct {
	ID   int64  `db:"id"   json:"id"`
	Code string `db:"code" json:"code"`
}

// User is the credential-store record for a storefront account.
// PasswordHash is a bcrypt hash and never leaves the data layer.
type User struct {
	ID           int64     `db:"id"            json:"id"`
	Email        string    `db:"email"         json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name"    json:"first_name"`
	LastName     string    `db:"last_name"     json:"last_name"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`

	// Roles and Permissions are loaded alongside the base row; they feed the
	// identity snapshot taken at authentication time.
	Roles       []Role   `db:"-" json:"roles"`
	Permissions []string `db:"-" json:"permissions"`
}

// DisplayName returns the user's name for presentation, falling back to the
// email address when name fields are empty.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}

// RoleIDs returns the ids of all roles held by the user.
func (u *User) RoleIDs() []int64 {
	ids := make([]int64, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// RememberTokenRecord is the persisted form of a remember-me token. A user may
// hold several outstanding tokens, one per device/login.
type RememberTokenRecord struct {
	ID        int64     `db:"id"         json:"id"`
	UserID    int64     `db:"user_id"    json:"user_id"`
	Secret    string    `db:"secret"     json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RememberTokenRecord) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
