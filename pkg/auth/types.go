package auth

// Mode is the access level carried by a set of permissions.
//
// Every validated token gets ModeUser; authorization is decided by comparing
// identities, not modes.
type Mode int

const (
	ModeUser Mode = iota
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "user"
	default:
		return "unknown"
	}
}

// Permissions are derived from a validated token and attached to the request
// context for downstream handlers.
type Permissions struct {
	Username string
	Mode     Mode
}

// CanActAs reports whether these permissions may mutate or fully read the
// resources owned by username.
func (p *Permissions) CanActAs(username string) bool {
	return p != nil && p.Username != "" && p.Username == username
}

// Authorize returns ErrAuthorizationDenied unless p can act as owner
func (p *Permissions) Authorize(owner string) error {
	if !p.CanActAs(owner) {
		return ErrAuthorizationDenied
	}
	return nil
}
