package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("identity: invalid or expired token")
	ErrUserNotFound = errors.New("identity: user not found")
)

// User is an authenticated internal user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier turns a bearer token into a User.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*User, error)
}

// Directory looks users up by email. Implementations must use an indexed
// lookup, never a scan over all users.
type Directory interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}

// emptyDirectory backs drivers that have no user directory. Every lookup
// misses, leaving all linking to the read path.
type emptyDirectory struct{}

func (emptyDirectory) FindUserByEmail(context.Context, string) (*User, error) {
	return nil, ErrUserNotFound
}
