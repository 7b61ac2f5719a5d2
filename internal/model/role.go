package model

import "fmt"

// Role is the closed set of account kinds.
type Role string

const (
	RolePlayer       Role = "PLAYER"
	RoleStadiumOwner Role = "STADIUM_OWNER"
)

// ParseRole accepts only known roles. Unknown values are an error, never a default.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePlayer:
		return RolePlayer, nil
	case RoleStadiumOwner:
		return RoleStadiumOwner, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity is the caller as established by the identity provider.
type Identity struct {
	UserID uint64
	Role   Role
}

func (id Identity) IsOwner() bool  { return id.Role == RoleStadiumOwner }
func (id Identity) IsPlayer() bool { return id.Role == RolePlayer }
