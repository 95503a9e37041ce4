package models

import "time"

// Role is the marketplace role attached to an account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFarmer, RoleBuyer:
		return true
	}
	return false
}

// User represents an account in the directory.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255)" validate:"required"` // bcrypt hash once stored
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Role      Role      `json:"role" gorm:"type:varchar(16);index" validate:"required,oneof=admin farmer buyer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor returns the identity that core operations receive for this account.
func (u *User) Actor() Actor {
	return Actor{Email: u.Email, Name: u.Name, Role: u.Role}
}

// Actor is the authenticated identity threaded into every core call.
// A zero Actor is anonymous.
type Actor struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (a Actor) Anonymous() bool {
	return a.Email == ""
}
