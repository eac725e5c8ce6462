package policies

import (
	"context"
	"errors"
)

var ErrInvalidCredential = errors.New("auth: invalid credential")

// RoleAdmin is the only role the booking core inspects beyond ownership.
const RoleAdmin = "admin"

// Principal is the authenticated caller as asserted by the external auth
// collaborator's bearer credential.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CredentialVerifier validates a bearer credential and extracts the caller.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (Principal, error)
}
