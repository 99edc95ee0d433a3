package wholesale

import (
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// Role identifies a user role, e.g. "wholesale_customer".
type Role string

// RoleDisabled is the sentinel eligible role meaning wholesale pricing is
// switched off. It is never a member of any actor's role set.
const RoleDisabled Role = "none"

// ErrInvalidRole is returned by ParseRole for malformed role identifiers.
var ErrInvalidRole = errors.New("invalid role identifier")

var roleRe = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ParseRole validates a role identifier. Empty input (after trimming) and
// "none" both yield RoleDisabled.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(RoleDisabled) {
		return RoleDisabled, nil
	}
	if !roleRe.MatchString(s) {
		return "", errors.Wrapf(ErrInvalidRole, "%q", s)
	}
	return Role(s), nil
}

// Disabled reports whether r is the RoleDisabled sentinel (or unset).
func (r Role) Disabled() bool {
	return r == RoleDisabled || r == ""
}

func (r Role) String() string {
	if r == "" {
		return string(RoleDisabled)
	}
	return string(r)
}

// Actor is the current requester as seen by the pricing core.
// The zero value is an anonymous actor.
type Actor struct {
	ID            string
	Roles         []Role
	Authenticated bool
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// HasRole reports whether role is one of the actor's roles.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
