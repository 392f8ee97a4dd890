package users

import "time"

// User is a registered account holder identified by a unique phone number.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// SignupInput carries the fields needed to register a user.
type SignupInput struct {
	FirstName string
	LastName  string
	Phone     string
	Password  string
}

// Patch lists the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Password  *string
}
